package htmlutil

import (
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// InputValue returns the value attribute of the first input with the
// given name under root, or "" when no such input exists.
func InputValue(root *goquery.Selection, name string) string {
	return root.Find(fmt.Sprintf("input[name='%s']", name)).AttrOr("value", "")
}

// HasInput reports whether an input with the given name exists under root.
func HasInput(root *goquery.Selection, name string) bool {
	return root.Find(fmt.Sprintf("input[name='%s']", name)).Length() > 0
}

// SelectedOption returns the value of the selected option of the named
// select element. fallback is returned when the select is missing or
// has no selected option.
func SelectedOption(root *goquery.Selection, name, fallback string) string {
	sel := root.Find(fmt.Sprintf("select[name='%s']", name))
	if sel.Length() == 0 {
		return fallback
	}
	opt := sel.Find("option[selected]")
	if opt.Length() == 0 {
		return fallback
	}
	return opt.First().AttrOr("value", fallback)
}

// FormValues copies every named input, select and textarea of a form
// verbatim, the way a browser would serialize it. Unchecked checkboxes
// and radios are omitted; selects fall back to their first option.
func FormValues(form *goquery.Selection) url.Values {
	values := url.Values{}

	form.Find("input, select, textarea").Each(func(_ int, tag *goquery.Selection) {
		name, ok := tag.Attr("name")
		if !ok || name == "" {
			return
		}

		if goquery.NodeName(tag) == "textarea" {
			values.Set(name, tag.Text())
			return
		}
		if goquery.NodeName(tag) == "select" {
			opt := tag.Find("option[selected]")
			if opt.Length() == 0 {
				opt = tag.Find("option")
			}
			values.Set(name, opt.First().AttrOr("value", ""))
			return
		}

		typ := tag.AttrOr("type", "")
		if typ == "checkbox" || typ == "radio" {
			if _, checked := tag.Attr("checked"); checked {
				values.Set(name, tag.AttrOr("value", "on"))
			}
			return
		}
		values.Set(name, tag.AttrOr("value", ""))
	})

	return values
}
