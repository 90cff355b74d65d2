package webapp

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"unicode"
)

const idLength = 8

var errUploadTooLarge = errors.New("upload is too large")

// parseUploadedFile reads one multipart file field. ok is false when the
// field is absent and required is false.
func parseUploadedFile(r *http.Request, fieldName string, maxBytes int64, required bool, requiredMessage string) (raw []byte, fileName string, ok bool, err error) {
	file, header, err := r.FormFile(fieldName)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) && !required {
			return nil, "", false, nil
		}
		return nil, "", false, errors.New(requiredMessage)
	}
	defer file.Close()

	fileName = strings.TrimSpace(header.Filename)
	if fileName == "" {
		if !required {
			return nil, "", false, nil
		}
		return nil, "", false, errors.New(requiredMessage)
	}
	raw, err = io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, "", false, errors.New("unable to read uploaded file")
	}
	if int64(len(raw)) > maxBytes {
		return nil, "", false, errUploadTooLarge
	}
	if len(raw) == 0 {
		return nil, "", false, errors.New("uploaded file is empty")
	}
	return raw, fileName, true, nil
}

// secureFilename reduces name to ASCII letters, digits, dots, dashes and
// underscores, with whitespace turned into underscores. It never returns a
// path, and never starts with a dot or underscore.
func secureFilename(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	var b strings.Builder
	for _, r := range strings.Join(strings.Fields(name), "_") {
		switch {
		case r > unicode.MaxASCII:
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return strings.TrimLeft(b.String(), "._")
}

// originalName strips the id prefix from a stored output name.
func originalName(stored string) string {
	if _, rest, ok := strings.Cut(stored, "_"); ok && rest != "" {
		return rest
	}
	return stored
}

func validStoredName(name string) bool {
	if len(name) <= idLength+1 || name[idLength] != '_' {
		return false
	}
	return secureFilename(name) == name && strings.HasSuffix(name, ".xlsx")
}
