package apierr

// Presentation says how a view surfaces a classified failure.
type Presentation struct {
	Inline       bool   `json:"inline,omitempty"`
	Redirect     string `json:"redirect,omitempty"`
	ClearSession bool   `json:"-"`
	Retry        bool   `json:"retry,omitempty"`
	Notify       bool   `json:"notify,omitempty"`
}

// Present decides the presentation. listLoad is true when the failure
// happened while loading a list view, which always offers a retry.
func Present(c Classification, listLoad bool) Presentation {
	switch c.Category {
	case "":
		return Presentation{}
	case CategoryValidation:
		if len(c.Fields) > 0 {
			return Presentation{Inline: true}
		}
	case CategoryUnauthorized:
		return Presentation{Redirect: "/login", ClearSession: true}
	case CategoryNetwork:
		return Presentation{Retry: true, Notify: true}
	}
	return Presentation{Retry: listLoad, Notify: true}
}
