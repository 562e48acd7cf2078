package types_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/summary"
	types "github.com/okian/rollcall/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScanFacesRequest(t *testing.T) {
	Convey("Given a scan_faces body", t, func() {
		body := `{"detections":[[{"subject_id":"R001","confidence":0.91},{"identity":"students/R009.jpg","confidence":0.4}],[],[{"identity":"students/R002.png","confidence":0.8}]]}`
		var req types.ScanFacesRequest
		So(json.Unmarshal([]byte(body), &req), ShouldBeNil)

		Convey("When converting to detections", func() {
			ds := req.ModelDetections()

			Convey("Then every detection keeps its index and candidate order", func() {
				So(ds, ShouldHaveLength, 3)
				So(ds[0], ShouldResemble, model.Detection{
					{DetectionIndex: 0, SubjectID: "R001", Confidence: 0.91},
					{DetectionIndex: 0, SubjectID: "R009", Confidence: 0.4},
				})
				So(ds[1], ShouldBeEmpty)
				So(ds[2][0].SubjectID, ShouldEqual, "R002")
				So(ds[2][0].DetectionIndex, ShouldEqual, 2)
			})
		})
	})
}

func TestFromOutcome(t *testing.T) {
	Convey("Given an applied outcome", t, func() {
		at := time.Date(2024, 3, 1, 9, 30, 5, 0, time.UTC)
		o := model.Outcome{
			SubjectID:  "R005",
			Name:       "Linus",
			Status:     model.StatusPresent,
			Source:     model.SourceVoice,
			Previous:   model.StatusAbsent,
			Replaced:   true,
			ObservedAt: at,
		}

		Convey("Then the response carries the wire forms", func() {
			resp := types.FromOutcome(o, "R005 marked Present")
			So(resp.Success, ShouldBeTrue)
			So(resp.Name, ShouldEqual, "Linus")
			So(resp.Status, ShouldEqual, "Present")
			So(resp.Previous, ShouldEqual, "Absent")
			So(resp.Source, ShouldEqual, "voice")
			So(resp.Timestamp, ShouldEqual, "2024-03-01T09:30:05")
		})
	})
}

func TestFromReport(t *testing.T) {
	Convey("Given a report with a recorded and an unrecorded row", t, func() {
		at := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
		r := summary.Report{
			Summary: summary.Summary{Total: 2, Present: 1, Absent: 1},
			Rows: []summary.Row{
				{Subject: model.Subject{ID: "R001", Name: "Ada"}, Status: model.StatusPresent, ObservedAt: at, Recorded: true},
				{Subject: model.Subject{ID: "R002", Name: "Grace"}, Status: model.StatusAbsent},
			},
		}

		Convey("Then the dashboard mirrors it", func() {
			d := types.FromReport(at, r)
			So(d.Date, ShouldEqual, "2024-03-01")
			So(d.Total, ShouldEqual, 2)
			So(d.Present, ShouldEqual, 1)
			So(d.Rows[0].Timestamp, ShouldEqual, "2024-03-01T08:00:00")
			So(d.Rows[1].Timestamp, ShouldBeEmpty)
			So(d.Rows[1].Status, ShouldEqual, "Absent")
		})
	})
}

func TestFromEntries(t *testing.T) {
	Convey("Given ledger entries", t, func() {
		at := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
		entries := []model.Entry{{SubjectID: "R001", Status: model.StatusAbsent, ObservedAt: at}}

		Convey("Then they encode with roll/status/timestamp keys", func() {
			b, err := json.Marshal(types.FromEntries(entries))
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `[{"roll":"R001","status":"Absent","timestamp":"2024-03-01T08:00:00"}]`)
		})
	})
}
