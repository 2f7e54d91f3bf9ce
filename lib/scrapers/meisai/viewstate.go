package meisai

import (
	"log/slog"

	"worktool/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// formState is the hidden-field snapshot the server expects echoed back
// on the next POST. It is replaced wholesale on every page transition.
type formState struct {
	viewState       string
	eventValidation string
	generator       string
}

// extractFormState looks up the three ASP.NET state inputs. A missing
// field yields an empty string; when the whole block is absent the page
// probably isn't a WebForms page, which is worth a warning but not an
// abort (some transitional pages legitimately omit it).
func extractFormState(doc *goquery.Document) formState {
	root := doc.Selection
	state := formState{
		viewState:       htmlutil.InputValue(root, "__VIEWSTATE"),
		eventValidation: htmlutil.InputValue(root, "__EVENTVALIDATION"),
		generator:       htmlutil.InputValue(root, "__VIEWSTATEGENERATOR"),
	}

	if !htmlutil.HasInput(root, "__VIEWSTATE") &&
		!htmlutil.HasInput(root, "__EVENTVALIDATION") &&
		!htmlutil.HasInput(root, "__VIEWSTATEGENERATOR") {
		slog.Warn("page carries no ASP.NET state block")
	}
	return state
}

// payload renders the snapshot as the base form fields of a WebForms
// event POST.
func (s formState) payload(eventTarget string) map[string]string {
	return map[string]string{
		"__EVENTTARGET":        eventTarget,
		"__EVENTARGUMENT":      "",
		"__VIEWSTATE":          s.viewState,
		"__EVENTVALIDATION":    s.eventValidation,
		"__VIEWSTATEGENERATOR": s.generator,
	}
}
