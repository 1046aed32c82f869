package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayimolou/ayimolou-backend/pkg/logger"
)

type pinger interface {
	Ping(context.Context) error
}

type runner interface {
	Run(context.Context) error
}

type ServiceParams struct {
	Logger   *logger.Logger
	DB       pinger
	Redis    pinger
	PubSub   pinger
	Consumer runner
}

// Service runs the notification consumer once its dependencies answer.
type Service struct {
	logg     *logger.Logger
	deps     []namedPinger
	consumer runner
}

type namedPinger struct {
	name string
	p    pinger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Redis == nil {
		return nil, errors.New("redis client is required")
	}
	if params.PubSub == nil {
		return nil, errors.New("pubsub client is required")
	}
	if params.Consumer == nil {
		return nil, errors.New("notification consumer is required")
	}
	return &Service{
		logg: params.Logger,
		deps: []namedPinger{
			{name: "database", p: params.DB},
			{name: "redis", p: params.Redis},
			{name: "pubsub", p: params.PubSub},
		},
		consumer: params.Consumer,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	for _, dep := range s.deps {
		if err := dep.p.Ping(ctx); err != nil {
			s.logg.Error(s.logg.WithField(ctx, "dependency", dep.name), "worker.ping.failed", err)
			return fmt.Errorf("%s ping failed: %w", dep.name, err)
		}
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	err := s.consumer.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logg.Error(ctx, "worker.consumer.stopped", err)
		return err
	}
	s.logg.Info(ctx, "worker.stopped")
	return ctx.Err()
}
