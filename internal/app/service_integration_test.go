package service_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/rollcall/internal/adapters/repository"
	"github.com/okian/rollcall/internal/adapters/roster"
	service "github.com/okian/rollcall/internal/app"
	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/voice"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service over the file backend", t, func() {
		dir := t.TempDir()
		dataDir := filepath.Join(dir, "data")
		rosterPath := filepath.Join(dir, "students.csv")
		So(os.WriteFile(rosterPath, []byte("roll,name\nR001,Ada\nR002,Grace\nR003,Linus\n"), 0o600), ShouldBeNil)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		start := func(opts ...service.Option) *service.Service {
			base := []service.Option{
				service.WithStorage(repository.DriverFile),
				service.WithDataDir(dataDir),
				service.WithRosterFile(rosterPath),
				service.WithLocation(time.UTC),
				service.WithClock(func() time.Time { return morning }),
			}
			svc := service.New(append(base, opts...)...)
			So(svc.Start(ctx), ShouldBeNil)
			return svc
		}

		Convey("When commands arrive from every producer", func() {
			svc := start()
			_, err := svc.ApplyDecoded(ctx, "R001")
			So(err, ShouldBeNil)
			_, err = svc.ApplyTranscript(ctx, "mark are 2 absent")
			So(err, ShouldBeNil)
			_, err = svc.ApplyMatches(ctx, []model.Detection{{{SubjectID: "R003"}}})
			So(err, ShouldBeNil)
			svc.Stop()

			Convey("Then the day file holds one row per subject", func() {
				b, err := os.ReadFile(filepath.Join(dataDir, "attendance_2024-03-01.csv"))
				So(err, ShouldBeNil)
				So(string(b), ShouldEqual, "timestamp,roll,status\n"+
					"2024-03-01T09:15:30,R001,Present\n"+
					"2024-03-01T09:15:30,R002,Absent\n"+
					"2024-03-01T09:15:30,R003,Present\n")
			})

			Convey("Then a restarted service sees the same ledger", func() {
				again := start()
				defer again.Stop()
				sum, err := again.Summary(ctx)
				So(err, ShouldBeNil)
				So(sum.Total, ShouldEqual, 3)
				So(sum.Present, ShouldEqual, 2)
			})
		})

		Convey("When many producers write concurrently", func() {
			svc := start()
			defer svc.Stop()

			var wg sync.WaitGroup
			for i := 0; i < 32; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					id := fmt.Sprintf("R%03d", i%3+1)
					if i%2 == 0 {
						_, _ = svc.Mark(ctx, id, model.StatusAbsent)
						return
					}
					_, _ = svc.ApplyDecoded(ctx, id)
				}(i)
			}
			wg.Wait()

			Convey("Then every subject has exactly one entry", func() {
				entries, err := svc.Snapshot(ctx)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 3)
				for _, e := range entries {
					So(e.Status.Valid(), ShouldBeTrue)
				}
			})
		})

		Convey("When custom corrections and identifier width are configured", func() {
			svc := start(
				service.WithCorrections([]voice.Correction{{Wrong: "prison", Right: "present"}, {Wrong: "are", Right: "r"}}),
				service.WithIdentifierFormat("R", 4),
			)
			defer svc.Stop()
			o, err := svc.ApplyTranscript(ctx, "are 12 prison")

			Convey("Then the configured table and width apply", func() {
				So(err, ShouldBeNil)
				So(o.SubjectID, ShouldEqual, "R0012")
				So(o.Status, ShouldEqual, model.StatusPresent)
			})
		})

		Convey("When the roster file is missing", func() {
			So(os.Remove(rosterPath), ShouldBeNil)

			Convey("Then a lenient service starts with an empty roster", func() {
				svc := start()
				defer svc.Stop()
				So(svc.Roster(ctx), ShouldBeEmpty)
			})

			Convey("Then a strict service refuses to start", func() {
				svc := service.New(
					service.WithDataDir(dataDir),
					service.WithRosterFile(rosterPath),
					service.WithStrictRoster(true),
				)
				err := svc.Start(ctx)
				So(errors.Is(err, roster.ErrRosterNotFound), ShouldBeTrue)
			})
		})

		Convey("When the sqlite backend is selected", func() {
			svc := start(
				service.WithStorage(repository.DriverSQLite),
				service.WithSQLitePath(filepath.Join(dir, "ledger.db")),
			)
			defer svc.Stop()
			_, err := svc.Mark(ctx, "R002", model.StatusPresent)
			So(err, ShouldBeNil)

			Convey("Then writes are visible through the snapshot", func() {
				entries, err := svc.Snapshot(ctx)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
				So(entries[0].SubjectID, ShouldEqual, "R002")
			})
		})
	})
}
