// Package faces resolves ranked face matches for one photo into commands.
package faces

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/okian/rollcall/internal/domain/dedupe"
	"github.com/okian/rollcall/internal/domain/model"
)

// Resolve takes the best candidate of every detection, in detection order,
// and emits one Present command per subject not yet seen in this photo.
// Detections without candidates are skipped. The result may be empty.
func Resolve(ctx context.Context, detections []model.Detection) []model.Command {
	return ResolveInto(ctx, dedupe.NewInMemoryDeduper(), detections)
}

// ResolveInto is Resolve with a caller-owned seen set. Ids already in seen
// are not emitted again; every emitted id is recorded in it.
func ResolveInto(ctx context.Context, seen dedupe.Deduper, detections []model.Detection) []model.Command {
	cmds := make([]model.Command, 0, len(detections))
	for _, d := range detections {
		if len(d) == 0 {
			continue
		}
		id := strings.TrimSpace(d[0].SubjectID)
		if id == "" {
			continue
		}
		if seen.SeenAndRecord(ctx, id) {
			continue
		}
		cmds = append(cmds, model.Command{SubjectID: id, Status: model.StatusPresent, Source: model.SourceFaces})
	}
	return cmds
}

// SubjectFromIdentity derives a subject id from a gallery image path such as
// "students/R001.jpg".
func SubjectFromIdentity(identity string) string {
	base := filepath.Base(filepath.ToSlash(strings.TrimSpace(identity)))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
