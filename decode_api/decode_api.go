package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"controltowerevents/controltower"
	"controltowerevents/handlehttp"
	"controltowerevents/logging"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/caarlos0/env/v11"
	"github.com/glassechidna/go-emf/emf"
	"github.com/glassechidna/go-emf/emf/unit"
	"github.com/gorilla/mux"
)

type settings struct {
	LogLevel        string `env:"LOG_LEVEL" envDefault:"INFO"`
	MetricNamespace string `env:"METRIC_NAMESPACE" envDefault:"controltower-lifecycle"`
	MaxBodyBytes    int64  `env:"MAX_BODY_BYTES" envDefault:"1048576"`
	Addr            string `env:"ADDR" envDefault:":8080"`
}

type handler struct {
	maxBody int64
	emit    func(emf.MSI)
}

type decodeOutput struct {
	EventName string          `json:",omitempty"`
	Variant   string          `json:",omitempty"`
	State     string          `json:",omitempty"`
	Event     json.RawMessage `json:",omitempty"`
	Error     *decodeFailure  `json:",omitempty"`
}

type decodeFailure struct {
	Kind      string
	Message   string
	Field     string   `json:",omitempty"`
	Expected  string   `json:",omitempty"`
	Keys      []string `json:",omitempty"`
	Ignorable bool
}

func (h *handler) router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/decode", h.handleDecode).Methods(http.MethodPost)
	r.HandleFunc("/api/variants", h.handleVariants).Methods(http.MethodGet)
	r.Use(h.metrics)
	return r
}

func (h *handler) metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			msi := emf.MSI{
				"Path":         r.URL.Path,
				"StatusCode":   emf.Dimension(fmt.Sprintf("%d", rec.status)),
				"Milliseconds": emf.Metric(float64(time.Since(start).Milliseconds()), unit.Milliseconds),
			}
			if rc := handlehttp.RequestContextFromContext(r.Context()); rc != nil {
				msi["RequestId"] = rc.RequestID
			}
			h.emit(msi)
		}()

		next.ServeHTTP(rec, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	j, _ := json.Marshal(v)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(j)
}

func (h *handler) handleDecode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeJSON(w, http.StatusRequestEntityTooLarge, decodeOutput{Error: &decodeFailure{Kind: "TooLarge", Message: err.Error()}})
			return
		}
		writeJSON(w, http.StatusBadRequest, decodeOutput{Error: &decodeFailure{Kind: "Read", Message: err.Error()}})
		return
	}

	e, err := controltower.Decode(body)
	if err != nil {
		slog.InfoContext(ctx, "rejected lifecycle event", logging.DecodeErrorAttrs(err)...)
		writeJSON(w, http.StatusUnprocessableEntity, decodeOutput{Error: failure(err)})
		return
	}

	canonical, err := controltower.Encode(e)
	if err != nil {
		panic(fmt.Sprintf("%+v", err))
	}

	writeJSON(w, http.StatusOK, decodeOutput{
		EventName: e.EventName,
		Variant:   e.ServiceEventDetails.DiscriminatorKey(),
		State:     controltower.Outcome(e.ServiceEventDetails),
		Event:     canonical,
	})
}

func failure(err error) *decodeFailure {
	f := &decodeFailure{Message: err.Error()}

	var de *controltower.DecodeError
	if errors.As(err, &de) {
		f.Kind = de.Kind.String()
		f.Field = de.Field
		f.Expected = de.Expected
		f.Keys = de.Keys
		f.Ignorable = controltower.IsForwardCompatible(err)
	}
	return f
}

func (h *handler) handleVariants(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "max-age=3600")
	writeJSON(w, http.StatusOK, controltower.Variants())
}

func main() {
	s := settings{}
	if err := env.Parse(&s); err != nil {
		panic(fmt.Sprintf("parsing environment: %+v", err))
	}

	logging.Init(logging.ParseLevel(s.LogLevel))
	emf.Namespace = s.MetricNamespace

	h := &handler{
		maxBody: s.MaxBodyBytes,
		emit:    func(msi emf.MSI) { emf.Emit(msi) },
	}

	if _, ok := os.LookupEnv("_HANDLER"); ok {
		lambda.Start(handlehttp.WrapHandler(h.router()))
	} else {
		err := http.ListenAndServe(s.Addr, h.router())
		panic(err)
	}
}
