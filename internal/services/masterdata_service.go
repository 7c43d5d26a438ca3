// internal/services/masterdata_service.go
// Master filter lists for the dashboard/report dropdowns.

package services

import (
	"context"

	mysqlrepo "sla-penalty/internal/repositories/mysql"
)

type MasterLister interface {
	ListZones(ctx context.Context) ([]mysqlrepo.Option, error)
	ListStreets(ctx context.Context) ([]mysqlrepo.Option, error)
	ListUnits(ctx context.Context) ([]mysqlrepo.Option, error)
}

type MasterFilters struct {
	Zones   []mysqlrepo.Option `json:"zones"`
	Streets []mysqlrepo.Option `json:"streets"`
	Units   []mysqlrepo.Option `json:"units"`
}

type MasterDataService struct {
	Repo MasterLister
}

func (s *MasterDataService) Filters(ctx context.Context) (*MasterFilters, error) {
	zones, err := s.Repo.ListZones(ctx)
	if err != nil {
		return nil, err
	}
	streets, err := s.Repo.ListStreets(ctx)
	if err != nil {
		return nil, err
	}
	units, err := s.Repo.ListUnits(ctx)
	if err != nil {
		return nil, err
	}
	return &MasterFilters{Zones: zones, Streets: streets, Units: units}, nil
}
