// Package escrowctl is the operator CLI for the escrow gRPC API.
package escrowctl

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	escrowv1 "github.com/gigmate/gigmate/api/escrow/v1"
	entrypoint "github.com/gigmate/gigmate/internal/platform/cmd"
	platformgrpc "github.com/gigmate/gigmate/internal/platform/grpc"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/metadata"
)

// ErrUsage reports a malformed command line.
var ErrUsage = errors.New("usage")

const usage = `usage: escrowctl [flags] <command> [args]

commands:
  get <booking-id>
  list [-filter expr] [-page-size n] [-page-token token]
  fees <agreed-rate> [-mediation]
  accept <booking-id>
  escrow <booking-id> <payment-reference>
  cancel <booking-id> <venue|musician>
  confirm <booking-id> <venue|musician>
  dispute <booking-id> <venue|musician> <reason>
  rate <booking-id> <venue|musician> <stars> [comment]`

// Config holds escrowctl configuration.
type Config struct {
	Addr    string        `env:"GIGMATE_ESCROW_GRPC_TARGET" envDefault:"localhost:8090"`
	Timeout time.Duration `env:"GIGMATE_ESCROWCTL_TIMEOUT" envDefault:"10s"`
	Locale  string        `env:"GIGMATE_ESCROWCTL_LOCALE"`
	// Args is the command and its arguments left after flag parsing.
	Args []string
}

// ParseConfig parses environment and global flags; the remaining arguments
// name the command.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "Escrow gRPC address")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Deadline for the whole command")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Locale for error messages, for example pt-BR")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.Args = fs.Args()
	if len(cfg.Args) == 0 {
		return Config{}, fmt.Errorf("%w: missing command\n%s", ErrUsage, usage)
	}
	return cfg, nil
}

// Run dials the escrow server and executes one command.
func Run(ctx context.Context, cfg Config, out io.Writer, logger logrus.FieldLogger) error {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	conn, err := platformgrpc.DialWithHealth(ctx, cfg.Addr, escrowv1.ServiceName, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	if locale := strings.TrimSpace(cfg.Locale); locale != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "accept-language", locale)
	}
	return Execute(ctx, escrowv1.NewBookingEscrowServiceClient(conn), cfg.Args, out)
}

// Execute runs one command against client and writes the JSON response.
func Execute(ctx context.Context, client escrowv1.BookingEscrowServiceClient, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command\n%s", ErrUsage, usage)
	}
	command, rest := args[0], args[1:]

	var (
		resp any
		err  error
	)
	switch command {
	case "get":
		if err := expectArgs(command, rest, 1); err != nil {
			return err
		}
		resp, err = client.GetBooking(ctx, &escrowv1.GetBookingRequest{BookingID: rest[0]})
	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		filter := fs.String("filter", "", "AIP-160 filter")
		pageSize := fs.Int("page-size", 0, "Page size")
		pageToken := fs.String("page-token", "", "Page token")
		if err := fs.Parse(rest); err != nil {
			return fmt.Errorf("%w: list: %v", ErrUsage, err)
		}
		resp, err = client.ListBookings(ctx, &escrowv1.ListBookingsRequest{
			Filter:    *filter,
			PageSize:  int32(*pageSize),
			PageToken: *pageToken,
		})
	case "fees":
		if len(rest) == 0 {
			return fmt.Errorf("%w: fees needs an agreed rate", ErrUsage)
		}
		fs := flag.NewFlagSet("fees", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		mediation := fs.Bool("mediation", false, "Include the mediation fee")
		if err := fs.Parse(rest[1:]); err != nil {
			return fmt.Errorf("%w: fees: %v", ErrUsage, err)
		}
		resp, err = client.ComputeFees(ctx, &escrowv1.ComputeFeesRequest{AgreedRate: rest[0], MediationRequired: *mediation})
	case "accept":
		if err := expectArgs(command, rest, 1); err != nil {
			return err
		}
		resp, err = client.AcceptBooking(ctx, &escrowv1.AcceptBookingRequest{BookingID: rest[0]})
	case "escrow":
		if err := expectArgs(command, rest, 2); err != nil {
			return err
		}
		resp, err = client.MarkEscrowed(ctx, &escrowv1.MarkEscrowedRequest{BookingID: rest[0], PaymentReference: rest[1]})
	case "cancel":
		if err := expectArgs(command, rest, 2); err != nil {
			return err
		}
		resp, err = client.CancelBooking(ctx, &escrowv1.CancelBookingRequest{BookingID: rest[0], Party: rest[1]})
	case "confirm":
		if err := expectArgs(command, rest, 2); err != nil {
			return err
		}
		resp, err = client.ConfirmBooking(ctx, &escrowv1.ConfirmBookingRequest{BookingID: rest[0], Party: rest[1]})
	case "dispute":
		if len(rest) < 3 {
			return fmt.Errorf("%w: dispute needs a booking id, a party and a reason", ErrUsage)
		}
		resp, err = client.OpenDispute(ctx, &escrowv1.OpenDisputeRequest{
			BookingID: rest[0],
			Party:     rest[1],
			Reason:    strings.Join(rest[2:], " "),
		})
	case "rate":
		if len(rest) < 3 {
			return fmt.Errorf("%w: rate needs a booking id, a party and stars", ErrUsage)
		}
		stars, convErr := strconv.Atoi(rest[2])
		if convErr != nil {
			return fmt.Errorf("%w: stars must be an integer", ErrUsage)
		}
		resp, err = client.SubmitRating(ctx, &escrowv1.SubmitRatingRequest{
			BookingID: rest[0],
			Party:     rest[1],
			Stars:     stars,
			Comment:   strings.Join(rest[3:], " "),
		})
	default:
		return fmt.Errorf("%w: unknown command %q\n%s", ErrUsage, command, usage)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", command, err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func expectArgs(command string, args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%w: %s takes %d argument(s), got %d", ErrUsage, command, n, len(args))
	}
	return nil
}
