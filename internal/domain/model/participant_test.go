package model_test

import (
	"testing"
	"time"

	"github.com/okian/boardsync/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestExportBatch(t *testing.T) {
	Convey("Given a batch of three records", t, func() {
		batch := model.ExportBatch{
			{Rank: 1, HasRank: true, Hacker: "alice", Score: 100},
			{Rank: 2, HasRank: true, Hacker: "bob", Score: 90},
			{Rank: 3, HasRank: true, Hacker: "carol", Score: 75.5},
		}

		Convey("Then the leader's score is the top score", func() {
			So(batch.Len(), ShouldEqual, 3)
			So(batch.Empty(), ShouldBeFalse)
			So(batch.TopScore(), ShouldEqual, 100)
		})

		Convey("Then Head clamps to the batch bounds", func() {
			So(batch.Head(2).Len(), ShouldEqual, 2)
			So(batch.Head(10).Len(), ShouldEqual, 3)
			So(batch.Head(-1).Len(), ShouldEqual, 0)
		})

		Convey("Then Find matches hacker names exactly", func() {
			rec, ok := batch.Find("bob")
			So(ok, ShouldBeTrue)
			So(rec.Rank, ShouldEqual, 2)
			_, ok = batch.Find("Bob")
			So(ok, ShouldBeFalse)
		})

		Convey("Then appending to a head does not clobber the batch", func() {
			head := batch.Head(1)
			head = append(head, model.ParticipantRecord{Hacker: "mallory"})
			So(head.Len(), ShouldEqual, 2)
			So(batch[1].Hacker, ShouldEqual, "bob")
		})
	})

	Convey("Given an empty batch", t, func() {
		var batch model.ExportBatch

		Convey("Then it reports empty with a zero top score", func() {
			So(batch.Empty(), ShouldBeTrue)
			So(batch.TopScore(), ShouldEqual, 0)
		})
	})
}

func TestNewMetadata(t *testing.T) {
	Convey("Given a batch and a fixed clock", t, func() {
		now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
		batch := model.ExportBatch{{Hacker: "alice", Score: 100}, {Hacker: "bob", Score: 50}}

		meta := model.NewMetadata(batch, "spring-cup", now)

		Convey("Then the summary is derived from the batch", func() {
			So(meta.TotalParticipants, ShouldEqual, 2)
			So(meta.TopScore, ShouldEqual, 100)
			So(meta.GeneratedAt, ShouldEqual, "2026-03-14T09:26:53Z")
			So(meta.LastUpdate, ShouldEqual, "2026-03-14 09:26:53")
			So(meta.Contest, ShouldEqual, "spring-cup")
		})
	})
}
