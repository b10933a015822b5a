// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/danielhkuo/gatherfun/amidakuji"
	"github.com/danielhkuo/gatherfun/metrics"
	"github.com/danielhkuo/gatherfun/models"
	"github.com/danielhkuo/gatherfun/places"
	"github.com/danielhkuo/gatherfun/regions"
	"github.com/danielhkuo/gatherfun/store"
)

// Policy holds the configurable game rules.
type Policy struct {
	// Lanes is the number of tie-break lanes (K).
	Lanes          int
	TieBreakWindow time.Duration
	// SharedConnectors generates one rung set for everyone when entering the
	// tie-break. When false each play draws its own private rungs.
	SharedConnectors bool
	// FreeLaneChoice lets participants pick a start lane. When false the lane is
	// the participant's join index modulo Lanes.
	FreeLaneChoice   bool
	AllowCustomRungs bool
	// AutoAdvance enters the tie-break as soon as everyone has swiped.
	AutoAdvance        bool
	DefaultWaitMinutes int
	MaxWaitMinutes     int
	MinRungs           int
	MaxRungs           int
	RungSlots          int
}

func DefaultPolicy() Policy {
	rungs := amidakuji.DefaultOptions()
	return Policy{
		Lanes:              rungs.Lanes,
		TieBreakWindow:     3 * time.Minute,
		SharedConnectors:   true,
		FreeLaneChoice:     true,
		AllowCustomRungs:   true,
		AutoAdvance:        true,
		DefaultWaitMinutes: 10,
		MaxWaitMinutes:     24 * 60,
		MinRungs:           rungs.MinRungs,
		MaxRungs:           rungs.MaxRungs,
		RungSlots:          rungs.Slots,
	}
}

func (p Policy) rungOptions() amidakuji.Options {
	opts := amidakuji.DefaultOptions()
	opts.Lanes = p.Lanes
	if p.MinRungs > 0 {
		opts.MinRungs = p.MinRungs
	}
	if p.MaxRungs > 0 {
		opts.MaxRungs = p.MaxRungs
	}
	if p.RungSlots > 0 {
		opts.Slots = p.RungSlots
	}
	return opts
}

// Service runs the session workflow on top of a Store. Every operation is one
// atomic store update, so concurrent requests converge.
type Service struct {
	store   store.Store
	places  places.Provider
	clock   clockwork.Clock
	policy  Policy
	metrics *metrics.Recorder
	regions *regions.Catalog
	newRand func() amidakuji.Source
}

type Option func(*Service)

func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithPolicy(p Policy) Option {
	return func(s *Service) { s.policy = p }
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Service) { s.metrics = m }
}

// WithRegions replaces the location catalog used to check a host's setup.
func WithRegions(c *regions.Catalog) Option {
	return func(s *Service) { s.regions = c }
}

// WithRand replaces the random source used for rung generation.
func WithRand(fn func() amidakuji.Source) Option {
	return func(s *Service) { s.newRand = fn }
}

func New(st store.Store, provider places.Provider, opts ...Option) *Service {
	s := &Service{
		store:   st,
		places:  provider,
		clock:   clockwork.NewRealClock(),
		policy:  DefaultPolicy(),
		regions: regions.Default(),
		newRand: func() amidakuji.Source {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.policy.Lanes < 2 {
		s.policy.Lanes = DefaultPolicy().Lanes
	}
	return s
}

func (s *Service) Policy() Policy {
	return s.policy
}

// Regions is the catalog hosts pick locations from.
func (s *Service) Regions() *regions.Catalog {
	return s.regions
}

func (s *Service) Clock() clockwork.Clock {
	return s.clock
}

// CreateSession validates the host's setup, loads the candidate pool and stores
// a new session in recruiting with the host as its first participant.
func (s *Service) CreateSession(ctx context.Context, hostID string, req models.CreateSessionRequest) (*models.Session, error) {
	if hostID == "" {
		return nil, invalid("host_id", "is required")
	}
	if err := s.validateSetup(&req); err != nil {
		return nil, err
	}

	pool, err := s.places.Search(ctx, places.Filter{
		Locations: req.Locations,
		Cuisines:  req.Cuisines,
		Price:     req.Price,
	})
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		slog.Warn("session created with empty candidate pool", "host_id", hostID)
	}

	now := s.clock.Now().UTC()
	sess, err := s.store.Create(ctx, &models.Session{
		Name:         strings.TrimSpace(req.Name),
		HostID:       hostID,
		Status:       models.StatusRecruiting,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Country:      req.Country,
		Locations:    req.Locations,
		Cuisines:     req.Cuisines,
		Price:        req.Price,
		WaitMinutes:  req.WaitMinutes,
		Participants: []string{hostID},
		Candidates:   pool,
		WaitDeadline: now.Add(time.Duration(req.WaitMinutes) * time.Minute),
	})
	if err != nil {
		return nil, err
	}

	slog.Info("session created",
		"session_id", sess.ID,
		"host_id", hostID,
		"candidates", len(pool),
		"wait_minutes", req.WaitMinutes,
	)
	return sess, nil
}

func (s *Service) validateSetup(req *models.CreateSessionRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return invalid("name", "is required")
	}

	start, err := time.Parse(time.DateOnly, req.StartDate)
	if err != nil {
		return invalid("start_date", "must be YYYY-MM-DD")
	}
	if req.EndDate == "" {
		req.EndDate = req.StartDate
	}
	end, err := time.Parse(time.DateOnly, req.EndDate)
	if err != nil {
		return invalid("end_date", "must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return invalid("end_date", "must not be before start_date")
	}

	if len(req.Locations) == 0 {
		return invalid("locations", "at least one location is required")
	}
	// Without a country, locations are free-form.
	if req.Country != "" {
		if err := s.regions.Validate(req.Country, req.Locations); err != nil {
			if errors.Is(err, regions.ErrUnknownCountry) {
				return invalid("country", "is not supported")
			}
			return invalid("locations", err.Error())
		}
	}
	if req.Price.Min < 0 || (req.Price.Max > 0 && req.Price.Max < req.Price.Min) {
		return invalid("price", "min must be non-negative and not above max")
	}

	if req.WaitMinutes == 0 {
		req.WaitMinutes = s.policy.DefaultWaitMinutes
	}
	if req.WaitMinutes < 1 || req.WaitMinutes > s.policy.MaxWaitMinutes {
		return invalid("wait_minutes", "out of range")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Session, error) {
	return s.store.Get(ctx, id)
}

// Subscribe streams the session's versions until ctx is done.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan *models.Session, error) {
	return s.store.Subscribe(ctx, id)
}

// Join adds participant to the session. Joining twice is a no-op.
func (s *Service) Join(ctx context.Context, id, participant string) (*models.Session, error) {
	if participant == "" {
		return nil, invalid("participant_id", "is required")
	}
	return s.store.Update(ctx, id, func(cur *models.Session) (models.Patch, error) {
		if cur.IsParticipant(participant) {
			return models.Patch{}, nil
		}
		if err := acceptingSubmissions(cur); err != nil {
			return models.Patch{}, err
		}
		return models.Patch{Participants: []string{participant}}, nil
	})
}

// SubmitPreferences validates and stores the participant's preferences,
// joining them first if needed. Resubmitting replaces only their own entry.
func (s *Service) SubmitPreferences(ctx context.Context, id, participant string, req models.SubmitPreferencesRequest) (*models.Session, error) {
	if participant == "" {
		return nil, invalid("participant_id", "is required")
	}
	return s.store.Update(ctx, id, func(cur *models.Session) (models.Patch, error) {
		if err := acceptingSubmissions(cur); err != nil {
			return models.Patch{}, err
		}
		prefs, err := validatePreferences(cur, req)
		if err != nil {
			return models.Patch{}, err
		}
		prefs.SubmittedAt = s.clock.Now().UTC()

		return models.Patch{
			Participants: []string{participant},
			Preferences:  map[string]models.Preferences{participant: prefs},
		}, nil
	})
}

func validatePreferences(cur *models.Session, req models.SubmitPreferencesRequest) (models.Preferences, error) {
	prefs := models.Preferences{
		Nickname:    strings.TrimSpace(req.Nickname),
		Dates:       dedupe(req.Dates),
		TimePeriods: dedupe(req.TimePeriods),
		Locations:   dedupe(req.Locations),
		Cuisines:    dedupe(req.Cuisines),
	}

	if len(prefs.Dates) == 0 {
		return prefs, invalid("dates", "at least one date is required")
	}
	for _, d := range prefs.Dates {
		if _, err := time.Parse(time.DateOnly, d); err != nil {
			return prefs, invalid("dates", "must be YYYY-MM-DD")
		}
		if d < cur.StartDate || (cur.EndDate != "" && d > cur.EndDate) {
			return prefs, invalid("dates", d+" is outside the session's date range")
		}
	}

	if len(prefs.Locations) == 0 {
		return prefs, invalid("locations", "at least one location is required")
	}
	for _, l := range prefs.Locations {
		if len(cur.Locations) > 0 && !slices.Contains(cur.Locations, l) {
			return prefs, invalid("locations", l+" is not offered by this session")
		}
	}

	for _, c := range prefs.Cuisines {
		if len(cur.Cuisines) > 0 && !slices.Contains(cur.Cuisines, c) {
			return prefs, invalid("cuisines", c+" is not offered by this session")
		}
	}

	for _, p := range prefs.TimePeriods {
		if !slices.Contains(models.TimePeriods, p) {
			return prefs, invalid("time_periods", p+" is not a known time period")
		}
	}

	return prefs, nil
}

// SubmitVotes records the participant's liked candidates. If this was the last
// missing swipe and auto-advance is on, the tie-break starts in the same write.
func (s *Service) SubmitVotes(ctx context.Context, id, participant string, liked []string) (*models.Session, error) {
	var mv *move
	sess, err := s.store.Update(ctx, id, func(cur *models.Session) (models.Patch, error) {
		mv = nil
		if !cur.IsParticipant(participant) {
			return models.Patch{}, ErrNotParticipant
		}
		if err := acceptingSubmissions(cur); err != nil {
			return models.Patch{}, err
		}
		if _, ok := cur.Preferences[participant]; !ok {
			return models.Patch{}, ErrPreferencesRequired
		}

		votes := dedupe(liked)
		for _, cid := range votes {
			if _, ok := cur.Candidate(cid); !ok {
				return models.Patch{}, invalid("liked", cid+" is not a candidate in this session")
			}
		}
		if votes == nil {
			votes = []string{}
		}

		patch := models.Patch{Votes: map[string][]string{participant: votes}}
		next := cur.Clone()
		next.Apply(patch)

		if s.policy.AutoAdvance {
			if to, err := nextStatus(next, TriggerAllSwiped, ""); err == nil {
				p, err := s.enter(next, to)
				if err != nil {
					return models.Patch{}, err
				}
				mv = &move{from: cur.Status, to: to, trigger: TriggerAllSwiped}
				mergeInto(&patch, p)
			}
		}
		return patch, nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("votes submitted", "session_id", id, "participant_id", participant, "liked", len(sess.Votes[participant]))
	s.record(id, sess, mv)
	return sess, nil
}

// Advance is the host's "next phase" action.
func (s *Service) Advance(ctx context.Context, id, actor string) (*models.Session, error) {
	return s.fire(ctx, id, TriggerHostAdvance, actor)
}

// StartTieBreak is the host's explicit tie-break start.
func (s *Service) StartTieBreak(ctx context.Context, id, actor string) (*models.Session, error) {
	return s.fire(ctx, id, TriggerHostStartTieBreak, actor)
}

// HandleDeadline applies the deadline trigger if the session's deadline has
// passed. Before the deadline, or once finished, it changes nothing.
func (s *Service) HandleDeadline(ctx context.Context, id string) (*models.Session, error) {
	var mv *move
	sess, err := s.store.Update(ctx, id, func(cur *models.Session) (models.Patch, error) {
		mv = nil
		if cur.Status == models.StatusFinished || !Expired(cur.WaitDeadline, s.clock.Now()) {
			return models.Patch{}, nil
		}
		to, err := nextStatus(cur, TriggerDeadline, "")
		if err != nil {
			return models.Patch{}, err
		}
		p, err := s.enter(cur, to)
		if err != nil {
			return models.Patch{}, err
		}
		mv = &move{from: cur.Status, to: to, trigger: TriggerDeadline}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	s.record(id, sess, mv)
	return sess, nil
}

func (s *Service) fire(ctx context.Context, id string, trig Trigger, actor string) (*models.Session, error) {
	var mv *move
	sess, err := s.store.Update(ctx, id, func(cur *models.Session) (models.Patch, error) {
		mv = nil
		to, err := nextStatus(cur, trig, actor)
		if err != nil {
			return models.Patch{}, err
		}
		p, err := s.enter(cur, to)
		if err != nil {
			return models.Patch{}, err
		}
		mv = &move{from: cur.Status, to: to, trigger: trig}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	s.record(id, sess, mv)
	return sess, nil
}

// move describes a committed transition, for logs and metrics.
type move struct {
	from    models.Status
	to      models.Status
	trigger Trigger
}

func (s *Service) record(id string, sess *models.Session, mv *move) {
	if mv == nil || sess.Status != mv.to {
		return
	}
	slog.Info("session transition",
		"session_id", id,
		"from", mv.from.String(),
		"to", mv.to.String(),
		"trigger", string(mv.trigger),
	)
	s.metrics.Transition(mv.from.String(), mv.to.String(), string(mv.trigger))
	if mv.to == models.StatusFinished {
		s.metrics.Finalized(sess.FinalRule)
		winner := ""
		if sess.FinalChoice != nil {
			winner = sess.FinalChoice.ID
		}
		slog.Info("session finished", "session_id", id, "rule", sess.FinalRule, "winner", winner)
	}
}

func acceptingSubmissions(cur *models.Session) error {
	switch cur.Status {
	case models.StatusRecruiting, models.StatusSwiping:
		return nil
	case models.StatusFinished:
		return ErrAlreadyFinished
	}
	return ErrPhaseClosed
}

// mergeInto copies the set fields of src over dst.
func mergeInto(dst *models.Patch, src models.Patch) {
	if src.Status != nil {
		dst.Status = src.Status
	}
	dst.Participants = append(dst.Participants, src.Participants...)
	if src.Candidates != nil {
		dst.Candidates = src.Candidates
	}
	if src.TieBreak != nil {
		dst.TieBreak = src.TieBreak
	}
	if src.WaitDeadline != nil {
		dst.WaitDeadline = src.WaitDeadline
	}
	if src.Final != nil {
		dst.Final = src.Final
	}
	for k, v := range src.Preferences {
		if dst.Preferences == nil {
			dst.Preferences = map[string]models.Preferences{}
		}
		dst.Preferences[k] = v
	}
	for k, v := range src.Votes {
		if dst.Votes == nil {
			dst.Votes = map[string][]string{}
		}
		dst.Votes[k] = v
	}
	for k, v := range src.TieBreakResults {
		if dst.TieBreakResults == nil {
			dst.TieBreakResults = map[string]string{}
		}
		dst.TieBreakResults[k] = v
	}
}

func dedupe(in []string) []string {
	var out []string
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
