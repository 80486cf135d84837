// Package seed provisions markets, stalls and sessions from a YAML fixture.
// Provisioning is outside the core; this only exists so a fresh database or
// the in-memory store has something to resolve.
package seed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"stallpick-be/internal/entity"
	"stallpick-be/internal/repository/unitofwork"

	"gopkg.in/yaml.v3"
)

type Fixture struct {
	Markets []MarketFixture `yaml:"markets"`
}

type MarketFixture struct {
	Name     string           `yaml:"name"`
	Stalls   []StallFixture   `yaml:"stalls"`
	Sessions []SessionFixture `yaml:"sessions"`
}

type StallFixture struct {
	Name          string  `yaml:"name"`
	BannerUrl     *string `yaml:"banner_url"`
	PhysicalLabel *string `yaml:"physical_stall"`
	SortOrder     int     `yaml:"sort_order"`
}

type SessionFixture struct {
	Code string `yaml:"code"`
	// Open lists stall names that start open in this session.
	Open []string `yaml:"open"`
}

// Result lists what Apply created.
type Result struct {
	Markets  []*entity.Market
	Stalls   []*entity.Stall
	Sessions []*entity.Session
}

func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	for i, m := range f.Markets {
		if strings.TrimSpace(m.Name) == "" {
			return nil, fmt.Errorf("market #%d has no name", i+1)
		}
		for _, s := range m.Sessions {
			if strings.TrimSpace(s.Code) == "" {
				return nil, fmt.Errorf("market %q has a session without code", m.Name)
			}
		}
	}
	return &f, nil
}

// Apply creates every row of f in one transaction.
func Apply(ctx context.Context, factory unitofwork.RepositoryFactory, f *Fixture) (*Result, error) {
	uow := factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	res := &Result{}
	for _, mf := range f.Markets {
		market := &entity.Market{Name: mf.Name}
		if err := uow.SessionRepository().CreateMarket(ctx, market); err != nil {
			return nil, fmt.Errorf("create market %q: %w", mf.Name, err)
		}
		res.Markets = append(res.Markets, market)

		byName := make(map[string]*entity.Stall, len(mf.Stalls))
		for i, sf := range mf.Stalls {
			order := sf.SortOrder
			if order == 0 {
				order = i + 1
			}
			stall := &entity.Stall{
				MarketId:      market.Id,
				Name:          sf.Name,
				BannerUrl:     sf.BannerUrl,
				PhysicalLabel: sf.PhysicalLabel,
				SortOrder:     order,
			}
			if err := uow.StallRepository().Create(ctx, stall); err != nil {
				return nil, fmt.Errorf("create stall %q: %w", sf.Name, err)
			}
			byName[strings.ToLower(sf.Name)] = stall
			res.Stalls = append(res.Stalls, stall)
		}

		for _, sf := range mf.Sessions {
			session := &entity.Session{MarketId: market.Id, Code: sf.Code}
			if err := uow.SessionRepository().Create(ctx, session); err != nil {
				return nil, fmt.Errorf("create session %q: %w", sf.Code, err)
			}
			res.Sessions = append(res.Sessions, session)

			for _, name := range sf.Open {
				stall, ok := byName[strings.ToLower(name)]
				if !ok {
					return nil, fmt.Errorf("session %q opens unknown stall %q", sf.Code, name)
				}
				if _, err := uow.AvailabilityRepository().Upsert(ctx, session.Id, stall.Id, true, "seed"); err != nil {
					return nil, fmt.Errorf("open stall %q: %w", name, err)
				}
			}
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return res, nil
}
