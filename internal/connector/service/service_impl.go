package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/etabridge/internal/clock"
	"github.com/smallbiznis/etabridge/internal/connector/domain"
	etadomain "github.com/smallbiznis/etabridge/internal/eta/domain"
	"github.com/smallbiznis/etabridge/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultPOSOSVersion = "os"

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("connector.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Connector, error) {
	kind, err := etadomain.ParseKind(strings.ToLower(strings.TrimSpace(req.Kind)))
	if err != nil {
		return nil, domain.ErrInvalidKind
	}
	env, ok := domain.ParseEnvironment(req.Environment)
	if !ok {
		return nil, domain.ErrInvalidEnvironment
	}

	now := s.clock.Now()
	connector := &domain.Connector{
		ID:                 s.genID.Generate(),
		Company:            strings.TrimSpace(req.Company),
		Name:               strings.TrimSpace(req.Name),
		Kind:               kind,
		Environment:        env,
		ClientID:           strings.TrimSpace(req.ClientID),
		ClientSecret:       req.ClientSecret,
		POSSerial:          strings.TrimSpace(req.POSSerial),
		POSOSVersion:       strings.TrimSpace(req.POSOSVersion),
		SignatureStartDate: req.SignatureStartDate,
		GracePeriodHours:   req.GracePeriodHours,
		IsDefault:          req.IsDefault,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if kind == etadomain.KindReceipt && connector.POSOSVersion == "" {
		connector.POSOSVersion = defaultPOSOSVersion
	}
	if err := connector.Validate(); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByName(ctx, tx, connector.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrNameTaken
		}
		if connector.IsDefault {
			current, err := s.repo.FindDefault(ctx, tx, connector.Company, connector.Kind)
			if err != nil {
				return err
			}
			if current != nil {
				return domain.ErrDefaultConnectorExists
			}
		}
		return s.repo.Insert(ctx, tx, connector)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			if connector.IsDefault {
				return nil, domain.ErrDefaultConnectorExists
			}
			return nil, domain.ErrNameTaken
		}
		return nil, err
	}

	s.log.Info("connector created",
		zap.String("connector", connector.Name),
		zap.String("company", connector.Company),
		zap.String("kind", string(connector.Kind)),
		zap.String("environment", string(connector.Environment)),
		zap.Bool("default", connector.IsDefault),
	)
	return connector, nil
}

func (s *Service) Get(ctx context.Context, name string) (*domain.Connector, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	connector, err := s.repo.FindByName(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	if connector == nil {
		return nil, domain.ErrNotFound
	}
	return connector, nil
}

func (s *Service) List(ctx context.Context, company string) ([]domain.Connector, error) {
	return s.repo.List(ctx, s.db, domain.ListFilter{Company: strings.TrimSpace(company)})
}

func (s *Service) Default(ctx context.Context, company string, kind etadomain.DocumentKind) (*domain.Connector, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, domain.ErrInvalidCompany
	}
	connector, err := s.repo.FindDefault(ctx, s.db, company, kind)
	if err != nil {
		return nil, err
	}
	if connector == nil {
		return nil, domain.ErrNoDefaultConnector
	}
	return connector, nil
}

func (s *Service) Defaults(ctx context.Context, kind etadomain.DocumentKind) ([]domain.Connector, error) {
	items, err := s.repo.List(ctx, s.db, domain.ListFilter{Kind: kind, DefaultOnly: true})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		if _, dup := seen[item.Company]; dup {
			s.log.Warn("company has more than one default connector", zap.String("company", item.Company))
			continue
		}
		seen[item.Company] = struct{}{}
		out = append(out, item)
	}
	return out, nil
}

// IsNotFound reports the lookup errors callers usually answer with 404.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrNoDefaultConnector)
}
