package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/davidleathers/fraud-feature-engine/internal/domain/feature"
	"github.com/davidleathers/fraud-feature-engine/internal/infrastructure/dataset"
)

// FeatureService mock
type FeatureService struct {
	mock.Mock
}

func (m *FeatureService) ComputeFeatures(ctx context.Context, table *dataset.Table) (*feature.Table, error) {
	args := m.Called(ctx, table)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*feature.Table), args.Error(1)
}
