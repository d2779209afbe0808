package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/kilianp07/chargeboard/core/chart"
	"github.com/kilianp07/chargeboard/core/journal"
	"github.com/kilianp07/chargeboard/core/model"
	"github.com/kilianp07/chargeboard/infra/render"
	"github.com/kilianp07/chargeboard/pkg/export"
)

// schedule returns the dense form of the latest run, nil when none arrived.
func (s *server) schedule() *chart.Schedule {
	snap, ok := s.session.Run()
	if !ok {
		return nil
	}
	if snap.Schedule != nil {
		return snap.Schedule
	}
	return chart.NewSchedule(snap.Result)
}

func (s *server) scale(r *http.Request) (float64, bool) {
	v := r.URL.Query().Get("scale")
	if v == "" {
		return s.opts.HeatmapScale, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f, true
}

func (s *server) depotChart(w http.ResponseWriter, _ *http.Request) {
	sch := s.schedule()
	if sch == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, sch.DepotSeries())
}

func (s *server) vehicleChart(w http.ResponseWriter, r *http.Request) {
	scale, ok := s.scale(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "scale must be a positive number")
		return
	}
	sch := s.schedule()
	if sch == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	hm, ok := sch.Heatmap(scale)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, hm)
}

type comparisonView struct {
	Rows   []model.ComparisonRow `json:"rows"`
	Deltas model.StrategyKPIs    `json:"deltas"`
}

func (s *server) table() *model.ComparisonTable {
	rep, ok := s.session.Comparison()
	if !ok {
		return nil
	}
	return rep.Table
}

func (s *server) comparisonChart(w http.ResponseWriter, _ *http.Request) {
	t := s.table()
	if t == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, comparisonView{Rows: t.Rows(), Deltas: t.Deltas()})
}

type summaryView struct {
	chart.Summary
	Preview []string `json:"preview"`
}

func (s *server) summary(w http.ResponseWriter, _ *http.Request) {
	sch := s.schedule()
	if sch == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, summaryView{
		Summary: sch.Summary(),
		Preview: sch.Preview(s.opts.PreviewVehicles, s.opts.PreviewHours),
	})
}

func (s *server) chartPage(w http.ResponseWriter, r *http.Request) {
	var c render.Chart
	switch mux.Vars(r)["name"] {
	case "depots":
		if sch := s.schedule(); sch != nil {
			c = render.DepotLines(sch.DepotSeries())
		}
	case "vehicles":
		scale, ok := s.scale(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "scale must be a positive number")
			return
		}
		if sch := s.schedule(); sch != nil {
			if hm, ok := sch.Heatmap(scale); ok {
				c = render.VehicleHeatmap(hm)
			}
		}
	case "comparison":
		if t := s.table(); t != nil {
			c = render.ComparisonBars(*t)
		}
	}
	if c == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	html, err := render.HTML(c)
	if err != nil {
		s.log.Errorf("chart %s: %v", r.URL.Path, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(html)
}

func (s *server) exportSchedule(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format != "" && format != "json" && format != "csv" {
		writeError(w, http.StatusBadRequest, "format must be json or csv")
		return
	}
	sch := s.schedule()
	if sch == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	entries := export.Entries(sch)
	var err error
	if format == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="schedule.csv"`)
		err = export.WriteCSV(w, entries)
	} else {
		w.Header().Set("Content-Type", "application/json")
		err = export.WriteJSON(w, entries)
	}
	if err != nil {
		s.log.Errorf("export schedule: %v", err)
	}
}

func (s *server) history(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	q := journal.Query{Kind: v.Get("kind"), Outcome: v.Get("outcome")}
	for name, dst := range map[string]*time.Time{"start": &q.Start, "end": &q.End} {
		if raw := v.Get(name); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, name+" must be an RFC3339 time")
				return
			}
			*dst = t
		}
	}
	if raw := v.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		q.Limit = n
	}
	recs, err := s.session.History(r.Context(), q)
	if err != nil {
		s.log.Errorf("history query: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if recs == nil {
		recs = []journal.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}
