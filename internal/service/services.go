package service

import (
	"github.com/MKhiriev/go-contact-attrs/internal/config"
	"github.com/MKhiriev/go-contact-attrs/internal/logger"
	"github.com/MKhiriev/go-contact-attrs/internal/store"
	"github.com/MKhiriev/go-contact-attrs/internal/utils"
)

type Services struct {
	ContactService ContactService
	FlushJob       FlushJob
}

func NewServices(storages *store.Storages, cfg *config.StructuredConfig, logger *logger.Logger) *Services {
	contactSvc := NewContactService(storages.ContactRepository, cfg.Reminder.Thresholds(), utils.NewUUIDGenerator(), logger)

	return &Services{
		ContactService: contactSvc,
		FlushJob:       NewFlushJob(contactSvc, logger),
	}
}
