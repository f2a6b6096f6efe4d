// Package summarizer turns an element enumeration into the compact markup
// the model reads each cycle.
package summarizer

import (
	"browser_agent/domain/entities"
	"browser_agent/domain/interfaces"
	"context"
	"fmt"
	"strings"
)

// Translate renders elements as newline-joined markup. See Summarize.
func Translate(ctx context.Context, elements []interfaces.Element, includeParagraphs bool) (string, error) {
	summary, err := Summarize(ctx, elements, includeParagraphs)
	if err != nil {
		return "", err
	}
	return summary.String(), nil
}

// Summarize renders at most one line per element, in input order, each
// tagged with the element's index in elements. Elements without the text or
// attribute their role needs are skipped. Read errors abort the summary.
func Summarize(ctx context.Context, elements []interfaces.Element, includeParagraphs bool) (entities.Summary, error) {
	var summary entities.Summary

	for i, el := range elements {
		line, ok, err := translateElement(ctx, i, el, includeParagraphs)
		if err != nil {
			return entities.Summary{}, fmt.Errorf("%w: summarize element %d: %w", entities.ErrBrowser, i, err)
		}
		if ok {
			summary.Lines = append(summary.Lines, line)
		}
	}

	return summary, nil
}

func translateElement(ctx context.Context, id int, el interfaces.Element, includeParagraphs bool) (entities.SummaryLine, bool, error) {
	tag, err := el.TagName(ctx)
	if err != nil {
		return entities.SummaryLine{}, false, fmt.Errorf("tag name: %w", err)
	}

	role := entities.RoleFromTag(tag)
	line := entities.SummaryLine{ID: id, Role: role}

	switch role {
	case entities.RoleButton, entities.RoleParagraph:
		if role == entities.RoleParagraph && !includeParagraphs {
			return line, false, nil
		}
		text, err := innerText(ctx, el)
		if err != nil || text == "" {
			return line, false, err
		}
		tagName := "button"
		if role == entities.RoleParagraph {
			tagName = "p"
		}
		line.Text = text
		line.Line = fmt.Sprintf("<%s id=%d>%s</%s>", tagName, id, text, tagName)

	case entities.RoleImage:
		alt, ok, err := attribute(ctx, el, "alt")
		if err != nil || !ok {
			return line, false, err
		}
		line.Text = alt
		line.Line = fmt.Sprintf(`<img id=%d alt="%s"/>`, id, alt)

	case entities.RoleLink:
		// Links wrapping a heading are in-page section anchors; the heading
		// text already describes them.
		nested, err := el.HasDescendant(ctx, entities.HeadingSelector)
		if err != nil {
			return line, false, fmt.Errorf("descendants: %w", err)
		}
		if nested {
			return line, false, nil
		}
		text, err := innerText(ctx, el)
		if err != nil || text == "" {
			return line, false, err
		}
		href, ok, err := attribute(ctx, el, "href")
		if err != nil || !ok {
			return line, false, err
		}
		line.Text = text
		line.Line = fmt.Sprintf("<link id=%d href=%s>%s<link>", id, href, text)

	case entities.RoleInput:
		placeholder, ok, err := attribute(ctx, el, "placeholder")
		if err != nil || !ok {
			return line, false, err
		}
		line.Text = placeholder
		line.Line = fmt.Sprintf("<input id=%d>%s</input>", id, placeholder)

	default:
		return line, false, nil
	}

	return line, true, nil
}

func innerText(ctx context.Context, el interfaces.Element) (string, error) {
	text, err := el.InnerText(ctx)
	if err != nil {
		return "", fmt.Errorf("inner text: %w", err)
	}
	return oneLine(text), nil
}

func attribute(ctx context.Context, el interfaces.Element, name string) (string, bool, error) {
	value, ok, err := el.Attribute(ctx, name)
	if err != nil {
		return "", false, fmt.Errorf("attribute %s: %w", name, err)
	}
	return oneLine(value), ok, nil
}

// oneLine collapses whitespace runs so every element renders on one line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
