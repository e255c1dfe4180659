package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/sopmatch/internal/adapters/http/api"
	"github.com/okian/sopmatch/internal/adapters/mq/queue"
	"github.com/okian/sopmatch/internal/adapters/repository"
	"github.com/okian/sopmatch/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDependencies implements api.Dependencies in memory.
type mockDependencies struct {
	submissions map[string]types.Submission
	reviewers   []types.Reviewer
	assignments map[string]types.Assignment

	matchErr  error
	batchErr  error
	lastTopK  int
	lastBatch []string
}

func newMockDependencies() *mockDependencies {
	return &mockDependencies{
		submissions: map[string]types.Submission{},
		assignments: map[string]types.Assignment{},
		reviewers: []types.Reviewer{
			{ID: "rev-a", Name: "Reviewer A", Expertise: []string{"nlp"}, MaxCapacity: 2},
			{ID: "rev-b", Name: "Reviewer B", Expertise: []string{"finance"}, MaxCapacity: 1, CurrentLoad: 1},
		},
	}
}

func (m *mockDependencies) PutSubmission(_ context.Context, s types.Submission) (types.Submission, bool, error) {
	if strings.TrimSpace(s.Text) == "" {
		return types.Submission{}, false, repository.ErrEmptyText
	}
	_, exists := m.submissions[s.ID]
	m.submissions[s.ID] = s
	return s, !exists, nil
}

func (m *mockDependencies) Submission(_ context.Context, id string) (types.Submission, error) {
	s, ok := m.submissions[id]
	if !ok {
		return types.Submission{}, fmt.Errorf("submission %s: %w", id, repository.ErrNotFound)
	}
	return s, nil
}

func (m *mockDependencies) Match(ctx context.Context, id string, topK int) (types.MatchResult, error) {
	m.lastTopK = topK
	if m.matchErr != nil {
		return types.MatchResult{}, m.matchErr
	}
	if _, err := m.Submission(ctx, id); err != nil {
		return types.MatchResult{}, err
	}
	res := types.MatchResult{ID: id, TopK: topK, Matches: []types.Match{}}
	for i, r := range m.reviewers {
		if i == topK {
			break
		}
		res.Matches = append(res.Matches, types.Match{Rank: i + 1, ReviewerID: r.ID, Name: r.Name, Expertise: r.Expertise})
	}
	return res, nil
}

func (m *mockDependencies) MatchBatch(ctx context.Context, ids []string, topK int) ([]types.MatchResult, error) {
	m.lastBatch = ids
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([]types.MatchResult, len(ids))
	for i, id := range ids {
		res, err := m.Match(ctx, id, topK)
		if err != nil {
			out[i] = types.MatchResult{ID: id, TopK: topK, Matches: []types.Match{}, Error: err.Error()}
			continue
		}
		out[i] = res
	}
	return out, nil
}

func (m *mockDependencies) Reviewers(context.Context) []types.Reviewer {
	return m.reviewers
}

func (m *mockDependencies) Assign(_ context.Context, a types.Assignment) (types.Assignment, bool, error) {
	if prev, ok := m.assignments[a.AssignmentID]; ok {
		return prev, true, nil
	}
	for i := range m.reviewers {
		r := &m.reviewers[i]
		if r.ID != a.ReviewerID {
			continue
		}
		if r.CurrentLoad >= r.MaxCapacity {
			return types.Assignment{}, false, repository.ErrCapacityExceeded
		}
		r.CurrentLoad++
		a.CurrentLoad, a.MaxCapacity = r.CurrentLoad, r.MaxCapacity
		m.assignments[a.AssignmentID] = a
		return a, false, nil
	}
	return types.Assignment{}, false, fmt.Errorf("reviewer %s: %w", a.ReviewerID, repository.ErrNotFound)
}

func (m *mockDependencies) Release(_ context.Context, id string) (types.Assignment, error) {
	a, ok := m.assignments[id]
	if !ok {
		return types.Assignment{}, fmt.Errorf("assignment %s: %w", id, repository.ErrNotFound)
	}
	delete(m.assignments, id)
	a.CurrentLoad--
	return a, nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newMux(deps *mockDependencies, opts ...api.Option) *http.ServeMux {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, opts...)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
	return body
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(newMockDependencies())

		Convey("Then the health endpoint serves metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then the stats endpoint serves JSON", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("Then a wrong method is rejected", func() {
			w := do(mux, http.MethodPut, "/submissions", `{}`)
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestSubmissionsHandler(t *testing.T) {
	Convey("Given the submissions endpoints", t, func() {
		deps := newMockDependencies()
		mux := newMux(deps)

		Convey("When a new submission is posted", func() {
			w := do(mux, http.MethodPost, "/submissions",
				`{"id":"sop-1","text":"I love NLP","preferences":{"field":"nlp","priority":"high"}}`)

			Convey("Then it is created", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(deps.submissions["sop-1"].Preferences.Field, ShouldEqual, "nlp")
			})

			Convey("And posting it again replaces it", func() {
				w := do(mux, http.MethodPost, "/submissions", `{"id":"sop-1","text":"I love finance"}`)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.submissions["sop-1"].Text, ShouldEqual, "I love finance")
			})

			Convey("And it can be read back", func() {
				w := do(mux, http.MethodGet, "/submissions/sop-1", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				var got types.Submission
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got.Text, ShouldEqual, "I love NLP")
			})
		})

		Convey("When the text is blank", func() {
			w := do(mux, http.MethodPost, "/submissions", `{"id":"sop-2","text":"   "}`)

			Convey("Then it returns 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, http.MethodPost, "/submissions", `{not json`)

			Convey("Then it returns 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When an unknown submission is read", func() {
			w := do(mux, http.MethodGet, "/submissions/missing", "")

			Convey("Then it returns 404", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decodeError(w)["code"], ShouldEqual, "not_found")
			})
		})
	})
}

func TestMatchesHandler(t *testing.T) {
	Convey("Given the matches endpoints and a stored submission", t, func() {
		deps := newMockDependencies()
		deps.submissions["sop-1"] = types.Submission{ID: "sop-1", Text: "nlp"}
		mux := newMux(deps, api.WithMaxTopK(10), api.WithDefaultTopK(3), api.WithMaxBatch(2))

		Convey("When posting a match request", func() {
			w := do(mux, http.MethodPost, "/matches", `{"id":"sop-1","top_k":1}`)

			Convey("Then the ranked list is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var res types.MatchResult
				So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
				So(res.ID, ShouldEqual, "sop-1")
				So(res.TopK, ShouldEqual, 1)
				So(res.Matches, ShouldHaveLength, 1)
			})
		})

		Convey("When top_k is omitted", func() {
			w := do(mux, http.MethodGet, "/matches/sop-1", "")

			Convey("Then the default is used", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastTopK, ShouldEqual, 3)
			})
		})

		Convey("When top_k is given as a query parameter", func() {
			w := do(mux, http.MethodGet, "/matches/sop-1?top_k=2", "")

			Convey("Then it is honoured", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastTopK, ShouldEqual, 2)
			})
		})

		Convey("When top_k exceeds the pool on an uncapped server", func() {
			w := do(newMux(deps), http.MethodPost, "/matches", `{"id":"sop-1","top_k":150}`)

			Convey("Then every reviewer is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastTopK, ShouldEqual, 150)
				var res types.MatchResult
				So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
				So(res.Matches, ShouldHaveLength, 2)
			})
		})

		Convey("When top_k is invalid", func() {
			cases := []struct {
				target string
				body   string
				code   string
			}{
				{target: "/matches", body: `{"id":"sop-1","top_k":0}`, code: "bad_request"},
				{target: "/matches", body: `{"id":"sop-1","top_k":-4}`, code: "bad_request"},
				{target: "/matches", body: `{"id":"sop-1","top_k":11}`, code: "limit_exceeded"},
				{target: "/matches/sop-1?top_k=abc", code: "bad_request"},
				{target: "/matches/sop-1?top_k=50", code: "limit_exceeded"},
			}

			Convey("Then every case returns 400 with its code", func() {
				for _, tc := range cases {
					method := http.MethodGet
					if tc.body != "" {
						method = http.MethodPost
					}
					w := do(mux, method, tc.target, tc.body)
					So(w.Code, ShouldEqual, http.StatusBadRequest)
					So(decodeError(w)["code"], ShouldEqual, tc.code)
				}
			})
		})

		Convey("When the submission is unknown", func() {
			w := do(mux, http.MethodPost, "/matches", `{"id":"nope","top_k":2}`)

			Convey("Then it returns 404", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the service fails unexpectedly", func() {
			deps.matchErr = errors.New("boom")
			w := do(mux, http.MethodPost, "/matches", `{"id":"sop-1","top_k":2}`)

			Convey("Then it returns 500", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decodeError(w)["code"], ShouldEqual, "internal_error")
			})
		})

		Convey("When a batch is posted", func() {
			w := do(mux, http.MethodPost, "/matches/batch", `{"ids":["sop-1","nope"],"top_k":2}`)

			Convey("Then every id gets a result", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body struct {
					Results []types.MatchResult `json:"results"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Results, ShouldHaveLength, 2)
				So(body.Results[0].Matches, ShouldHaveLength, 2)
				So(body.Results[1].Error, ShouldContainSubstring, "not found")
			})
		})

		Convey("When a batch is too large", func() {
			w := do(mux, http.MethodPost, "/matches/batch", `{"ids":["a","b","c"],"top_k":2}`)

			Convey("Then it returns 400 limit_exceeded", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "limit_exceeded")
				So(deps.lastBatch, ShouldBeNil)
			})
		})

		Convey("When the batch queue is full", func() {
			deps.batchErr = fmt.Errorf("batch: %w", queue.ErrFull)
			w := do(mux, http.MethodPost, "/matches/batch", `{"ids":["sop-1"]}`)

			Convey("Then it returns 429", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(decodeError(w)["code"], ShouldEqual, "backpressure")
			})
		})
	})
}

func TestReviewersHandler(t *testing.T) {
	Convey("Given the reviewers endpoint", t, func() {
		mux := newMux(newMockDependencies())

		Convey("When listing reviewers", func() {
			w := do(mux, http.MethodGet, "/reviewers", "")

			Convey("Then the pool is returned in order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body struct {
					Reviewers []types.Reviewer `json:"reviewers"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Reviewers, ShouldHaveLength, 2)
				So(body.Reviewers[0].ID, ShouldEqual, "rev-a")
			})
		})
	})
}

func TestAssignmentsHandler(t *testing.T) {
	Convey("Given the assignments endpoints", t, func() {
		deps := newMockDependencies()
		mux := newMux(deps)

		Convey("When a reviewer is assigned", func() {
			w := do(mux, http.MethodPost, "/assignments", `{"assignment_id":"as-1","reviewer_id":"rev-a","submission_id":"sop-1"}`)

			Convey("Then it returns 201 with the new load", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(w.Body.String(), ShouldContainSubstring, `"status":"assigned"`)
				So(w.Body.String(), ShouldContainSubstring, `"current_load":1`)
			})

			Convey("And repeating it is a duplicate", func() {
				w := do(mux, http.MethodPost, "/assignments", `{"assignment_id":"as-1","reviewer_id":"rev-a","submission_id":"sop-1"}`)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"status":"duplicate"`)
				So(w.Body.String(), ShouldContainSubstring, `"duplicate":true`)
			})

			Convey("And deleting it releases the load", func() {
				w := do(mux, http.MethodDelete, "/assignments/as-1", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"status":"released"`)
			})
		})

		Convey("When the reviewer is at capacity", func() {
			w := do(mux, http.MethodPost, "/assignments", `{"assignment_id":"as-2","reviewer_id":"rev-b","submission_id":"sop-1"}`)

			Convey("Then it returns 409", func() {
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(decodeError(w)["code"], ShouldEqual, "conflict")
			})
		})

		Convey("When the reviewer is unknown", func() {
			w := do(mux, http.MethodPost, "/assignments", `{"assignment_id":"as-3","reviewer_id":"ghost","submission_id":"sop-1"}`)

			Convey("Then it returns 404", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When releasing an unknown assignment", func() {
			w := do(mux, http.MethodDelete, "/assignments/ghost", "")

			Convey("Then it returns 404", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	Convey("Given a handler behind the request id middleware", t, func() {
		var seen string
		h := api.RequestIDMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			seen = api.RequestIDFromContext(r.Context())
		}))

		Convey("When the caller sends an id", func() {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.Header.Set(api.RequestIDHeader, "req-42")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then it is propagated", func() {
				So(seen, ShouldEqual, "req-42")
				So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "req-42")
			})
		})

		Convey("When the caller sends none", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

			Convey("Then one is generated", func() {
				So(seen, ShouldHaveLength, 36)
				So(w.Header().Get(api.RequestIDHeader), ShouldEqual, seen)
			})
		})
	})
}

func TestErrorHelpers(t *testing.T) {
	Convey("Given a wrapped kind", t, func() {
		cause := errors.New("cause")
		err := api.WrapKind("api.op", api.ErrConflict, cause)

		Convey("Then both kind and cause are visible", func() {
			So(errors.Is(err, api.ErrConflict), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: conflict: cause")
		})

		Convey("Then NewKind and Wrap format the op", func() {
			So(api.NewKind("api.op", api.ErrNotFound).Error(), ShouldEqual, "api.op: not found")
			So(api.Wrap("api.op", nil), ShouldBeNil)
			So(api.WrapKind("api.op", api.ErrBadRequest, nil).Error(), ShouldEqual, "api.op: bad request")
		})
	})
}
