package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"controltowerevents/cloudtraillog"
	"controltowerevents/controltower"
	"controltowerevents/logging"
	"controltowerevents/s3select"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/davecgh/go-spew/spew"
)

type options struct {
	dump        bool
	useS3Select bool
	profile     string
	inputs      []string
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("ctdecode", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: ctdecode [-dump] [-select] [-profile name] [file | s3://bucket/key | -]...")
		fs.PrintDefaults()
	}

	o := &options{}
	fs.BoolVar(&o.dump, "dump", false, "print decoded values instead of canonical JSON")
	fs.BoolVar(&o.useS3Select, "select", false, "filter s3:// CloudTrail log files with S3 Select instead of downloading them")
	fs.StringVar(&o.profile, "profile", "", "shared config profile used for s3:// inputs")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	o.inputs = fs.Args()
	if len(o.inputs) == 0 {
		o.inputs = []string{"-"}
	}
	return o, nil
}

type app struct {
	opts   *options
	stdin  io.Reader
	stdout io.Writer
	s3     func(ctx context.Context) (cloudtraillog.Downloader, error)
	sel    func(ctx context.Context) (s3select.API, error)
}

func (a *app) load(ctx context.Context, input string) (*cloudtraillog.Batch, error) {
	switch {
	case input == "-":
		return cloudtraillog.Read(a.stdin)
	case strings.HasPrefix(input, "s3://"):
		bucket, key, err := cloudtraillog.ParseS3URL(input)
		if err != nil {
			return nil, err
		}
		if a.opts.useS3Select {
			api, err := a.sel(ctx)
			if err != nil {
				return nil, fmt.Errorf("creating s3 client: %w", err)
			}
			return cloudtraillog.Select(ctx, api, bucket, key)
		}
		dl, err := a.s3(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating s3 client: %w", err)
		}
		return cloudtraillog.Fetch(ctx, dl, bucket, key)
	default:
		f, err := os.Open(input)
		if err != nil {
			return nil, fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		return cloudtraillog.Read(f)
	}
}

func (a *app) run(ctx context.Context) error {
	for _, input := range a.opts.inputs {
		batch, err := a.load(ctx, input)
		if err != nil {
			return fmt.Errorf("%s: %w", input, err)
		}

		for _, s := range batch.Skipped {
			if errors.Is(s.Reason, cloudtraillog.ErrNotLifecycleEvent) {
				slog.Debug("skipped record", "input", input, "index", s.Index, "eventName", s.EventName)
				continue
			}
			slog.Warn("skipped record", append([]any{"input", input, "index", s.Index, "eventId", s.EventID}, logging.DecodeErrorAttrs(s.Reason)...)...)
		}

		for _, e := range batch.Events {
			if a.opts.dump {
				spew.Fdump(a.stdout, e)
				continue
			}

			j, err := controltower.Encode(e)
			if err != nil {
				return fmt.Errorf("%s: encoding %s: %w", input, e.EventID, err)
			}
			fmt.Fprintln(a.stdout, string(j))
		}
	}

	return nil
}

func newS3(ctx context.Context, profile string) (*s3.Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg), nil
}

func main() {
	slog.SetDefault(slog.New(logging.NewHandler(os.Stderr, logging.ParseLevel(os.Getenv("LOG_LEVEL")))))

	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	a := &app{
		opts:   opts,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		s3: func(ctx context.Context) (cloudtraillog.Downloader, error) {
			api, err := newS3(ctx, opts.profile)
			if err != nil {
				return nil, err
			}
			return manager.NewDownloader(api), nil
		},
		sel: func(ctx context.Context) (s3select.API, error) {
			return newS3(ctx, opts.profile)
		},
	}

	if err := a.run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "ctdecode: %v\n", err)
		os.Exit(1)
	}
}
