package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/kilianp07/chargeboard/core/agent"
	"github.com/kilianp07/chargeboard/core/model"
	"github.com/kilianp07/chargeboard/internal/task"
)

const maxBody = 1 << 20

// Field is a form value posted either as a JSON string or as a number.
// Null and absent fields are blank.
type Field string

func (f *Field) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = Field(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected a string or a number, got %s", data)
		}
		*f = Field(n.String())
	}
	return nil
}

type optimizeForm struct {
	Horizon   Field `json:"horizon"`
	Objective Field `json:"objective"`
	Backend   Field `json:"backend"`
}

type compareForm struct {
	Horizon Field `json:"horizon"`
}

type sitePeakForm struct {
	Depot Field `json:"depot"`
	KW    Field `json:"kw"`
}

type blackoutForm struct {
	Depot Field `json:"depot"`
	Start Field `json:"start"`
	End   Field `json:"end"`
}

// Result is the body returned by every action.
type Result[T any] struct {
	Outcome string `json:"outcome"`
	Value   T      `json:"value,omitempty"`
	Warning string `json:"warning,omitempty"`
	Error   string `json:"error,omitempty"`
}

// decode reads an optional JSON body into v. An empty body leaves v zero.
func decode(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &model.ValidationError{Field: "body", Reason: err.Error()}
	}
	return nil
}

// statusFor maps a failed outcome to an HTTP status code.
func statusFor(err error) int {
	switch {
	case model.IsValidation(err):
		return http.StatusBadRequest
	case agent.IsTransport(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respond waits for t and writes its outcome. It returns without writing
// when the client goes away first; the action still completes.
func respond[T any](s *server, w http.ResponseWriter, r *http.Request, t *task.Task[T]) {
	out, err := t.Await(r.Context())
	if err != nil {
		s.log.Debugf("client left before %s completed: %v", r.URL.Path, err)
		return
	}
	res := Result[T]{Outcome: out.Kind.String(), Value: out.Value, Warning: out.Warning}
	code := http.StatusOK
	if out.Kind == task.Failure {
		code = statusFor(out.Err)
		res.Error = out.Err.Error()
	}
	writeJSON(w, code, res)
}

func (s *server) rejectBody(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, err.Error())
}

// detach keeps an action running when the client disconnects.
func detach(r *http.Request) context.Context { return context.WithoutCancel(r.Context()) }

func (s *server) refreshStatus(w http.ResponseWriter, r *http.Request) {
	respond(s, w, r, s.session.RefreshStatus(detach(r)))
}

func (s *server) optimize(w http.ResponseWriter, r *http.Request) {
	var f optimizeForm
	if err := decode(r, &f); err != nil {
		s.rejectBody(w, err)
		return
	}
	cfg, err := model.ParseOptimizeConfig(string(f.Horizon), string(f.Objective), string(f.Backend))
	if err != nil {
		s.rejectBody(w, err)
		return
	}
	respond(s, w, r, s.session.Optimize(detach(r), cfg))
}

func (s *server) compare(w http.ResponseWriter, r *http.Request) {
	var f compareForm
	if err := decode(r, &f); err != nil {
		s.rejectBody(w, err)
		return
	}
	var horizon *int
	if f.Horizon != "" {
		h, err := strconv.Atoi(string(f.Horizon))
		if err != nil {
			s.rejectBody(w, &model.ValidationError{Field: "horizon", Reason: "must be a whole number of hours"})
			return
		}
		horizon = &h
	}
	respond(s, w, r, s.session.Compare(detach(r), horizon))
}

func (s *server) sitePeak(w http.ResponseWriter, r *http.Request) {
	var f sitePeakForm
	if err := decode(r, &f); err != nil {
		s.rejectBody(w, err)
		return
	}
	respond(s, w, r, s.session.ApplySitePeak(detach(r), string(f.Depot), string(f.KW)))
}

func (s *server) blackout(w http.ResponseWriter, r *http.Request) {
	var f blackoutForm
	if err := decode(r, &f); err != nil {
		s.rejectBody(w, err)
		return
	}
	respond(s, w, r, s.session.AddBlackout(detach(r), string(f.Depot), string(f.Start), string(f.End)))
}
