// Package qr turns a decoded image payload into an attendance command.
package qr

import (
	"strings"

	"github.com/okian/rollcall/internal/domain/model"
)

// Resolve accepts the string produced by the external image decoder. An empty
// payload means nothing was decoded. The payload is trusted as the subject id;
// roster validation belongs to the caller.
func Resolve(payload string) (model.Command, error) {
	id := strings.TrimSpace(payload)
	if id == "" {
		return model.Command{}, model.Reject("no identifier present in image", payload)
	}
	return model.Command{SubjectID: id, Status: model.StatusPresent, Source: model.SourceQR}, nil
}
