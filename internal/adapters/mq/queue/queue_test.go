package queue_test

import (
	"context"
	"testing"

	"github.com/okian/sopmatch/internal/adapters/mq/queue"
	"github.com/okian/sopmatch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func job(id string) queue.Job {
	return model.MatchJob{Submission: model.Submission{ID: id, Text: "text"}, TopK: 1}
}

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a queue with capacity two", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))

		Convey("When it is empty", func() {
			So(q.Len(ctx), ShouldEqual, 0)
			So(q.IsClosed(), ShouldBeFalse)
		})

		Convey("When jobs are enqueued", func() {
			So(q.Enqueue(ctx, job("a")), ShouldBeTrue)
			So(q.Enqueue(ctx, job("b")), ShouldBeTrue)

			Convey("Then they come out in order", func() {
				So(q.Len(ctx), ShouldEqual, 2)
				ch := q.Dequeue(ctx)
				So((<-ch).Submission.ID, ShouldEqual, "a")
				q.Acknowledge()
				So((<-ch).Submission.ID, ShouldEqual, "b")
				So(q.Len(ctx), ShouldEqual, 0)
			})

			Convey("Then a third job is rejected without blocking", func() {
				So(q.Enqueue(ctx, job("c")), ShouldBeFalse)
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			Convey("Then enqueue is refused", func() {
				So(q.Enqueue(cctx, job("a")), ShouldBeFalse)
				So(q.Len(ctx), ShouldEqual, 0)
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Enqueue(ctx, job("a")), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)

			Convey("Then new jobs are refused and queued ones drain", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, job("b")), ShouldBeFalse)

				var ids []string
				for j := range q.Dequeue(ctx) {
					ids = append(ids, j.Submission.ID)
				}
				So(ids, ShouldResemble, []string{"a"})
			})
		})
	})
}
