package faces_test

import (
	"context"
	"testing"

	"github.com/okian/rollcall/internal/domain/dedupe"
	"github.com/okian/rollcall/internal/domain/faces"
	"github.com/okian/rollcall/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func det(index int, cands ...model.MatchCandidate) model.Detection {
	for i := range cands {
		cands[i].DetectionIndex = index
	}
	return model.Detection(cands)
}

func TestResolve(t *testing.T) {
	Convey("Given detections from one photo", t, func() {
		ctx := context.Background()

		Convey("When two detections resolve to the same subject", func() {
			cmds := faces.Resolve(ctx, []model.Detection{
				det(0, model.MatchCandidate{SubjectID: "R001", Confidence: 0.9}),
				det(1, model.MatchCandidate{SubjectID: "R002", Confidence: 0.8}),
				det(2, model.MatchCandidate{SubjectID: "R001", Confidence: 0.95}),
			})

			Convey("Then each subject is emitted once in detection order", func() {
				So(cmds, ShouldHaveLength, 2)
				So(cmds[0].SubjectID, ShouldEqual, "R001")
				So(cmds[1].SubjectID, ShouldEqual, "R002")
				for _, c := range cmds {
					So(c.Status, ShouldEqual, model.StatusPresent)
					So(c.Source, ShouldEqual, model.SourceFaces)
				}
			})
		})

		Convey("When a detection has several candidates", func() {
			cmds := faces.Resolve(ctx, []model.Detection{
				det(0,
					model.MatchCandidate{SubjectID: "R007", Confidence: 0.7},
					model.MatchCandidate{SubjectID: "R003", Confidence: 0.6},
				),
			})

			Convey("Then only the top-ranked candidate counts", func() {
				So(cmds, ShouldHaveLength, 1)
				So(cmds[0].SubjectID, ShouldEqual, "R007")
			})
		})

		Convey("When some detections matched nobody", func() {
			cmds := faces.Resolve(ctx, []model.Detection{
				det(0),
				det(1, model.MatchCandidate{SubjectID: "R004"}),
				nil,
			})

			Convey("Then they are skipped", func() {
				So(cmds, ShouldHaveLength, 1)
				So(cmds[0].SubjectID, ShouldEqual, "R004")
			})
		})

		Convey("When no detection matched", func() {
			cmds := faces.Resolve(ctx, []model.Detection{det(0), det(1)})

			Convey("Then the command set is empty", func() {
				So(cmds, ShouldBeEmpty)
			})
		})

		Convey("When there are no detections at all", func() {
			So(faces.Resolve(ctx, nil), ShouldBeEmpty)
		})
	})
}

func TestResolveInto(t *testing.T) {
	Convey("Given a seen set shared across calls", t, func() {
		ctx := context.Background()
		seen := dedupe.NewInMemoryDeduper()
		seen.SeenAndRecord(ctx, "R001")

		Convey("When a photo contains an id already in the set", func() {
			cmds := faces.ResolveInto(ctx, seen, []model.Detection{
				det(0, model.MatchCandidate{SubjectID: "R001"}),
				det(1, model.MatchCandidate{SubjectID: " R002 "}),
			})

			Convey("Then only the unseen subject is emitted and recorded", func() {
				So(cmds, ShouldHaveLength, 1)
				So(cmds[0].SubjectID, ShouldEqual, "R002")
				So(seen.Seen(), ShouldResemble, []string{"R001", "R002"})
			})
		})
	})
}

func TestSubjectFromIdentity(t *testing.T) {
	Convey("Given gallery identities", t, func() {
		So(faces.SubjectFromIdentity("students/R001.jpg"), ShouldEqual, "R001")
		So(faces.SubjectFromIdentity("/srv/gallery/R022.jpeg"), ShouldEqual, "R022")
		So(faces.SubjectFromIdentity("R030"), ShouldEqual, "R030")
		So(faces.SubjectFromIdentity(""), ShouldEqual, "")
	})
}
