package bridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"bmrengine/internal/app/dto"
	estimateapp "bmrengine/internal/app/handlers/estimate"
	"bmrengine/internal/app/middleware"
	"bmrengine/internal/app/queries"
	"bmrengine/internal/infra/obs"
)

// Server answers line-delimited JSON commands. Every line gets exactly one
// reply line; bad input never stops the loop.
type Server struct {
	Queries queries.Bus
	Stats   *obs.Stats
	Logger  *slog.Logger
	Version string
}

// Serve reads commands from r until EOF or ctx is done.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := bufio.NewReader(r)
	enc := json.NewEncoder(w)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, readErr := reader.ReadBytes('\n')
		if line := bytes.TrimSpace(raw); len(line) > 0 {
			if err := enc.Encode(s.Handle(ctx, line)); err != nil {
				return fmt.Errorf("bridge: write reply: %w", err)
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return readErr
		}
	}
}

// Handle decodes and runs a single command line.
func (s *Server) Handle(ctx context.Context, line []byte) (reply any) {
	defer func() {
		if r := recover(); r != nil {
			s.logger().Error("bridge command panicked", "panic", r)
			reply = dto.ErrorResponse{Error: fmt.Sprintf("internal error: %v", r), Code: middleware.OutcomeError}
		}
	}()
	cmd, err := decode(line)
	if err != nil {
		return dto.ErrorResponse{Error: err.Error(), Code: "bad_request"}
	}
	if cmd.legacy {
		res, err := s.dispatchLegacy(ctx, cmd)
		if err != nil {
			return s.fail(cmd, err)
		}
		return legacyReply{Success: true, Result: res}
	}
	res, err := s.dispatch(ctx, cmd)
	if err != nil {
		return s.fail(cmd, err)
	}
	return res
}

func (s *Server) fail(cmd Command, err error) dto.ErrorResponse {
	s.logger().Warn("bridge command failed", "action", cmd.Action, "legacy", cmd.legacy, "error", err)
	return dto.NewError(err, middleware.Outcome(err))
}

func decode(line []byte) (Command, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(line, &keys); err != nil {
		return Command{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, hasAction := keys["action"]; !hasAction {
		if _, hasOp := keys["operation"]; hasOp {
			var legacy LegacyRequest
			if err := json.Unmarshal(line, &legacy); err != nil {
				return Command{}, fmt.Errorf("invalid legacy request: %w", err)
			}
			return FromLegacy(legacy)
		}
	}
	var cmd Command
	if err := json.Unmarshal(line, &cmd); err != nil {
		return Command{}, fmt.Errorf("invalid command: %w", err)
	}
	return cmd, nil
}

func (s *Server) dispatch(ctx context.Context, cmd Command) (any, error) {
	switch strings.TrimSpace(cmd.Action) {
	case ActionCalculateBMR:
		est, err := s.estimate(ctx, cmd)
		if err != nil {
			return nil, err
		}
		return dto.EstimateResponse{Success: true, Estimate: est}, nil
	case ActionHealthCheck:
		return s.health(), nil
	case ActionListMethods:
		catalog, err := queries.Ask[estimateapp.ListMethodsQuery, dto.MethodCatalog](ctx, s.Queries, estimateapp.ListMethodsQuery{})
		if err != nil {
			return nil, err
		}
		return map[string]any{"success": true, "default": catalog.Default, "methods": catalog.Items}, nil
	case ActionGetMetrics:
		return map[string]any{"success": true, "metrics": s.stats().Snapshot()}, nil
	case ActionGetHistory:
		history, err := queries.Ask[estimateapp.HistoryQuery, dto.History](ctx, s.Queries, estimateapp.HistoryQuery{SubjectID: cmd.SubjectID, Limit: cmd.Limit})
		if err != nil {
			return nil, err
		}
		return map[string]any{"success": true, "subject_id": history.SubjectID, "items": history.Items}, nil
	case "":
		return nil, ErrMissingAction
	default:
		return nil, fmt.Errorf("bridge: unknown action %q", cmd.Action)
	}
}

// dispatchLegacy serves the operations flat clients knew about.
func (s *Server) dispatchLegacy(ctx context.Context, cmd Command) (any, error) {
	switch cmd.Action {
	case ActionCalculateBMR:
		return s.estimate(ctx, cmd)
	case ActionHealthCheck:
		return s.stats().Health(), nil
	case ActionGetMetrics:
		return s.stats().Snapshot(), nil
	default:
		return nil, fmt.Errorf("bridge: unknown operation %q", cmd.Action)
	}
}

func (s *Server) estimate(ctx context.Context, cmd Command) (dto.Estimate, error) {
	if cmd.Profile == nil {
		return dto.Estimate{}, ErrMissingProfile
	}
	profile, err := cmd.Profile.ToDomain()
	if err != nil {
		return dto.Estimate{}, err
	}
	query := estimateapp.EstimateQuery{SubjectID: cmd.SubjectID, Profile: profile, Method: cmd.Method}
	return queries.Ask[estimateapp.EstimateQuery, dto.Estimate](ctx, s.Queries, query)
}

type legacyReply struct {
	Success bool `json:"success"`
	Result  any  `json:"result"`
}

type healthReply struct {
	Success bool `json:"success"`
	obs.HealthSummary
	Version string `json:"version,omitempty"`
}

func (s *Server) health() healthReply {
	return healthReply{Success: true, HealthSummary: s.stats().Health(), Version: s.Version}
}

func (s *Server) stats() *obs.Stats {
	if s.Stats == nil {
		s.Stats = obs.NewStats()
	}
	return s.Stats
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
