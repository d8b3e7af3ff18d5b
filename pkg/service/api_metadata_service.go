package service

import (
	"context"
	"net/http"
	"time"

	"vexec/pkg/api"
)

const (
	Version          = "1.0.0"
	InterfaceVersion = "2.1.0"
)

type MetadataAPIService struct {
	startTime   time.Time
	parallelism int
}

func NewMetadataAPIService(parallelism int) *MetadataAPIService {
	return &MetadataAPIService{startTime: time.Now(), parallelism: parallelism}
}

// GetSystemInfo - basic information about the running server
func (s *MetadataAPIService) GetSystemInfo(ctx context.Context) (ImplResponse, error) {
	return Response(http.StatusOK, api.SystemInformation{
		Version:          Version,
		InterfaceVersion: InterfaceVersion,
		Uptime:           int64(time.Since(s.startTime).Seconds()),
		Parallelism:      s.parallelism,
	}), nil
}
