package clipboard

import (
	"errors"

	"github.com/OvercastBTC/Quartz-RTE-sub000/internal/format"
)

// ErrNotRTF is returned by SetRTF when the content lacks the {\rtf1 signature.
var ErrNotRTF = errors.New(`clipboard: content is missing the {\rtf1 signature`)

// SetRTF validates rtf and places it on c under the registered
// "Rich Text Format" id. Validation happens before any clipboard mutation.
func SetRTF(c Clipboard, rtf string) error {
	if format.Detect(rtf) != format.TagRTF {
		return ErrNotRTF
	}
	f, err := c.Register(NameRTF)
	if err != nil {
		return err
	}
	return c.Set(f, []byte(rtf))
}

// GetRTF returns the clipboard's RTF content, or "" if absent.
func GetRTF(c Clipboard) (string, error) {
	f, err := c.Register(NameRTF)
	if err != nil {
		return "", err
	}
	data, err := c.Get(f)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SetHTML wraps fragment in the CF_HTML envelope and places it on c under
// the registered "HTML Format" id.
func SetHTML(c Clipboard, fragment string) error {
	f, err := c.Register(NameHTML)
	if err != nil {
		return err
	}
	return c.Set(f, EncodeCFHTML(fragment))
}

// GetHTML returns the HTML fragment from the clipboard's CF_HTML payload,
// or "" if the format is absent.
func GetHTML(c Clipboard) (string, error) {
	f, err := c.Register(NameHTML)
	if err != nil {
		return "", err
	}
	data, err := c.Get(f)
	if err != nil || len(data) == 0 {
		return "", err
	}
	return DecodeCFHTML(data)
}
