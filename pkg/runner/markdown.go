package runner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/funnel/pkg/domain"
)

// Markdown formats a view as markdown text.
func Markdown(view domain.View) string {
	var b strings.Builder

	switch view.Kind {
	case domain.ViewLoading:
		b.WriteString("_Loading campaign..._\n")

	case domain.ViewError:
		fmt.Fprintf(&b, "# Something went wrong\n\n%s\n", view.Error.Message)

	case domain.ViewSelectTarget:
		v := view.SelectTarget
		writePromotion(&b, v.Promotion)
		fmt.Fprintf(&b, "## Step %d of %d: what are you reviewing?\n\n", view.Step, domain.LastStep)
		for i, p := range v.Products {
			fmt.Fprintf(&b, "%d. **%s** (%s)\n", i+1, p.Title, p.ID)
		}
		fmt.Fprintf(&b, "%d. The seller\n\n", len(v.Products)+1)
		fmt.Fprintf(&b, "Marketplaces: %s\n", strings.Join(v.Marketplaces, ", "))

	case domain.ViewContactInfo:
		fmt.Fprintf(&b, "## Step %d of %d: how can we reach you?\n", view.Step, domain.LastStep)

	case domain.ViewFeedback:
		v := view.Feedback
		fmt.Fprintf(&b, "## Step %d of %d: tell us about it\n\n", view.Step, domain.LastStep)
		fmt.Fprintf(&b, "At least %d characters (%d so far).\n", v.MinLength, v.Length)
		if v.Submitting {
			b.WriteString("\n_Sending your review..._\n")
		}
		if v.SubmissionError != "" {
			fmt.Fprintf(&b, "\n> **%s**\n", v.SubmissionError)
		}

	case domain.ViewDisclosure:
		v := view.Disclosure
		b.WriteString("# Thank you!\n\n")
		writePromotion(&b, v.Promotion)
		if v.Receipt != nil {
			fmt.Fprintf(&b, "Reference: `%s`\n\n", v.Receipt.ReviewID)
		}
		switch {
		case v.Share.Offered && v.Share.Domain != "":
			fmt.Fprintf(&b, "Would you share your review on **%s**?\n", v.Share.Domain)
		case v.Share.Offered:
			b.WriteString("Would you share your review on the marketplace?\n")
		}
	}

	if view.IsDemo {
		b.WriteString("\n_Demo mode: nothing you enter is recorded._\n")
	}
	return b.String()
}

func writePromotion(b *strings.Builder, p domain.Promotion) {
	if p.Title == "" {
		return
	}
	fmt.Fprintf(b, "### %s\n\n", p.Title)
	if p.Description != "" {
		fmt.Fprintf(b, "%s\n\n", p.Description)
	}
}

// Prompts lists the fields the customer fills on the active step.
// Views without input return nil.
func Prompts(view domain.View) []Prompt {
	switch view.Kind {
	case domain.ViewSelectTarget:
		v := view.SelectTarget
		targets := make([]string, 0, len(v.Products)+1)
		for _, p := range v.Products {
			targets = append(targets, p.ID)
		}
		targets = append(targets, domain.SellerTarget)

		var used string
		if v.UsedSevenDays != nil {
			used = strconv.FormatBool(*v.UsedSevenDays)
		}
		var rating string
		if v.Rating > 0 {
			rating = strconv.Itoa(v.Rating)
		}
		return []Prompt{
			{Field: "target", Label: "Product (number or id)", Current: v.Target, Options: targets},
			{Field: "marketplace", Label: "Marketplace", Current: v.Marketplace, Options: v.Marketplaces},
			{Field: "order_id", Label: "Order number", Current: v.OrderID},
			{Field: "rating", Label: "Rating (1-5)", Current: rating},
			{Field: "used_seven_days", Label: "Used for at least 7 days? (y/n)", Current: used},
		}

	case domain.ViewContactInfo:
		v := view.ContactInfo
		return []Prompt{
			{Field: "name", Label: "Name", Current: v.Name},
			{Field: "email", Label: "Email", Current: v.Email},
			{Field: "phone", Label: "Phone", Current: v.Phone, Optional: true},
		}

	case domain.ViewFeedback:
		return []Prompt{
			{Field: "feedback", Label: "Your feedback", Current: view.Feedback.Feedback},
		}
	}
	return nil
}

// resolveOption maps a 1-based index answer onto the prompt's options.
func resolveOption(p Prompt, answer string) string {
	if len(p.Options) == 0 {
		return answer
	}
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(p.Options) {
		return p.Options[n-1]
	}
	return answer
}
