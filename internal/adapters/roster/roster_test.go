package roster

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/rollcall/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("Given a roster CSV", t, func() {
		Convey("When it has roll and name columns", func() {
			r, err := Parse(strings.NewReader("roll,name\nR001,Ada\nR002, Grace\nR001,Duplicate\n"))

			Convey("Then subjects keep file order and first occurrence", func() {
				So(err, ShouldBeNil)
				So(r.Len(), ShouldEqual, 2)
				So(r.Subjects(), ShouldResemble, []model.Subject{
					{ID: "R001", Name: "Ada"},
					{ID: "R002", Name: "Grace"},
				})
				So(r.Contains("R002"), ShouldBeTrue)
				So(r.Contains("R003"), ShouldBeFalse)
				s, ok := r.Lookup("R001")
				So(ok, ShouldBeTrue)
				So(s.Name, ShouldEqual, "Ada")
			})
		})

		Convey("When the columns are reordered and extra ones exist", func() {
			r, err := Parse(strings.NewReader("Name,Email,Roll\nAda,a@x,R010\n"))

			Convey("Then they are located by header", func() {
				So(err, ShouldBeNil)
				So(r.Subjects(), ShouldResemble, []model.Subject{{ID: "R010", Name: "Ada"}})
			})
		})

		Convey("When the roll column is missing", func() {
			_, err := Parse(strings.NewReader("name\nAda\n"))

			Convey("Then it is rejected", func() {
				So(errors.Is(err, ErrInvalidRoster), ShouldBeTrue)
			})
		})

		Convey("When the input is empty", func() {
			r, err := Parse(strings.NewReader(""))

			Convey("Then the roster is empty", func() {
				So(err, ShouldBeNil)
				So(r.Len(), ShouldEqual, 0)
			})
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given a roster on disk", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "students.csv")
		So(os.WriteFile(path, []byte("roll,name\nR001,Ada\n"), 0o600), ShouldBeNil)

		Convey("When loading it", func() {
			r, err := Load(path)

			Convey("Then the subjects are read", func() {
				So(err, ShouldBeNil)
				So(r.Len(), ShouldEqual, 1)
			})
		})

		Convey("When the file is absent", func() {
			_, err := Load(filepath.Join(dir, "missing.csv"))

			Convey("Then ErrRosterNotFound is returned", func() {
				So(errors.Is(err, ErrRosterNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestNilRoster(t *testing.T) {
	Convey("Given a nil roster", t, func() {
		var r *Roster

		Convey("Then accessors are safe", func() {
			So(r.Len(), ShouldEqual, 0)
			So(r.Contains("R001"), ShouldBeFalse)
			So(r.Subjects(), ShouldBeNil)
		})
	})
}
