// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-contact-attrs/internal/attr"
	"github.com/MKhiriev/go-contact-attrs/internal/contact"
	"github.com/MKhiriev/go-contact-attrs/internal/logger"
	"github.com/MKhiriev/go-contact-attrs/internal/reminder"
	"github.com/MKhiriev/go-contact-attrs/internal/store"
	"github.com/MKhiriev/go-contact-attrs/internal/utils"
	"github.com/MKhiriev/go-contact-attrs/models"
)

type contactService struct {
	contactRepository store.ContactRepository
	thresholds        reminder.Thresholds
	ids               utils.IDGenerator
	locks             handleLocks
	now               func() time.Time

	logger *logger.Logger
}

func NewContactService(contactRepository store.ContactRepository, thresholds reminder.Thresholds, ids utils.IDGenerator, logger *logger.Logger) ContactService {
	return &contactService{
		contactRepository: contactRepository,
		thresholds:        thresholds,
		ids:               ids,
		now:               time.Now,
		logger:            logger,
	}
}

// begin attaches an operation-scoped logger to ctx. An op id already in
// ctx is reused so nested calls log under one id.
func (s *contactService) begin(ctx context.Context, op, handle string) (context.Context, *logger.Logger) {
	opID, ok := utils.GetOpIDFromContext(ctx)
	if !ok {
		opID = s.ids.Generate()
		ctx = utils.WithOpID(ctx, opID)
	}

	child := s.logger.GetChildLogger()
	child.Logger = child.With().Str("op", op).Str("op_id", opID).Str("handle", handle).Logger()
	return child.WithContext(ctx), child
}

func (s *contactService) Contact(ctx context.Context, handle string) (*contact.User, error) {
	ctx, _ = s.begin(ctx, "contact", handle)
	return s.load(ctx, handle, false)
}

func (s *contactService) Upsert(ctx context.Context, u *contact.User) error {
	if u == nil || u.Handle() == "" {
		return ErrEmptyHandle
	}
	ctx, _ = s.begin(ctx, "upsert", u.Handle())

	unlock := s.locks.lock(u.Handle())
	defer unlock()

	return s.save(ctx, u)
}

func (s *contactService) Forget(ctx context.Context, handle string) error {
	if handle == "" {
		return ErrEmptyHandle
	}
	ctx, log := s.begin(ctx, "forget", handle)

	unlock := s.locks.lock(handle)
	defer unlock()

	if err := s.contactRepository.Delete(ctx, handle); err != nil {
		log.Err(err).Str("func", "*contactService.Forget").Msg("error deleting contact")
		return fmt.Errorf("forget contact: %w", err)
	}
	return nil
}

func (s *contactService) ApplyRemote(ctx context.Context, handle, name string, value []byte, version string) error {
	ctx, log := s.begin(ctx, "apply_remote", handle)

	k, err := attr.NameToKind(name)
	if err != nil {
		log.Warn().Err(err).Str("name", name).Msg("ignoring attribute with unknown name")
		return err
	}

	return s.mutate(ctx, handle, true, func(u *contact.User) (bool, error) {
		return true, u.SetAttribute(k, value, version, attr.SourceRemote)
	})
}

func (s *contactService) InvalidateRemote(ctx context.Context, handle string, names ...string) error {
	ctx, log := s.begin(ctx, "invalidate_remote", handle)

	kinds := make([]attr.Kind, 0, len(names))
	for _, name := range names {
		k, err := attr.NameToKind(name)
		if err != nil {
			log.Warn().Err(err).Str("name", name).Msg("skipping invalidation of unknown attribute")
			continue
		}
		kinds = append(kinds, k)
	}
	if len(kinds) == 0 {
		return nil
	}

	err := s.mutate(ctx, handle, false, func(u *contact.User) (bool, error) {
		for _, k := range kinds {
			if err := u.InvalidateAttribute(k); err != nil {
				return false, err
			}
		}
		return true, nil
	})
	if errors.Is(err, store.ErrContactNotFound) {
		// nothing cached, nothing to invalidate
		return nil
	}
	return err
}

func (s *contactService) EditLocal(ctx context.Context, handle string, k attr.Kind, value []byte) (bool, error) {
	ctx, _ = s.begin(ctx, "edit_local", handle)

	var newlyPending bool
	err := s.mutate(ctx, handle, true, func(u *contact.User) (bool, error) {
		version, _ := u.AttributeVersion(k)
		if err := u.SetAttribute(k, value, version, attr.SourceLocal); err != nil {
			return false, err
		}
		var err error
		newlyPending, err = u.MarkChanged(k)
		return true, err
	})
	return newlyPending, err
}

func (s *contactService) Remove(ctx context.Context, handle string, k attr.Kind) error {
	ctx, _ = s.begin(ctx, "remove", handle)

	err := s.mutate(ctx, handle, false, func(u *contact.User) (bool, error) {
		if !u.HasAttribute(k) {
			return false, nil
		}
		return true, u.RemoveAttribute(k)
	})
	if errors.Is(err, store.ErrContactNotFound) {
		return nil
	}
	return err
}

func (s *contactService) Attribute(ctx context.Context, handle string, k attr.Kind) ([]byte, string, error) {
	ctx, _ = s.begin(ctx, "attribute", handle)

	u, err := s.load(ctx, handle, false)
	if err != nil {
		return nil, "", err
	}

	value, err := u.Attribute(k)
	if err != nil {
		return nil, "", err
	}
	version, _ := u.AttributeVersion(k)
	return value, version, nil
}

func (s *contactService) RecordReminder(ctx context.Context, handle string, d reminder.Detail, now time.Time) (bool, error) {
	ctx, _ = s.begin(ctx, "record_reminder", handle)

	var changed bool
	err := s.mutate(ctx, handle, true, func(u *contact.User) (bool, error) {
		var err error
		changed, err = u.RecordReminder(d, now)
		return changed, err
	})
	return changed, err
}

func (s *contactService) ShouldShowReminder(ctx context.Context, handle string, accountCreated, now time.Time, onLogout bool) (bool, error) {
	ctx, _ = s.begin(ctx, "should_show_reminder", handle)

	var buf []byte
	u, err := s.load(ctx, handle, false)
	switch {
	case err == nil:
		buf = u.ReminderBuffer()
	case errors.Is(err, store.ErrContactNotFound):
	default:
		return false, err
	}

	return s.thresholds.ShouldShow(buf, accountCreated, now, onLogout), nil
}

func (s *contactService) Pending(ctx context.Context) ([]PendingContact, error) {
	ctx, log := s.begin(ctx, "pending", "")

	records, err := s.contactRepository.ListPending(ctx)
	if err != nil {
		log.Err(err).Str("func", "*contactService.Pending").Msg("error listing pending contacts")
		return nil, fmt.Errorf("list pending contacts: %w", err)
	}

	pending := make([]PendingContact, 0, len(records))
	for _, rec := range records {
		u, err := s.decode(ctx, rec)
		if err != nil {
			// one bad row must not hide the others
			log.Err(err).Str("handle", rec.Handle).Msg("skipping corrupt pending contact")
			continue
		}
		pending = append(pending, pendingOf(u))
	}
	return pending, nil
}

func (s *contactService) Acknowledge(ctx context.Context, handle string, keys ...attr.ChangeKey) error {
	ctx, _ = s.begin(ctx, "acknowledge", handle)

	err := s.mutate(ctx, handle, false, func(u *contact.User) (bool, error) {
		before := u.PendingCount()
		u.ClearChanged(keys...)
		return u.PendingCount() != before, nil
	})
	if errors.Is(err, store.ErrContactNotFound) {
		return nil
	}
	return err
}

// mutate runs fn on the record under the handle lock and persists the result
// when fn reports a change. With create set, a missing record starts empty.
func (s *contactService) mutate(ctx context.Context, handle string, create bool, fn func(u *contact.User) (bool, error)) error {
	if handle == "" {
		return ErrEmptyHandle
	}

	unlock := s.locks.lock(handle)
	defer unlock()

	u, err := s.load(ctx, handle, create)
	if err != nil {
		return err
	}

	changed, err := fn(u)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.save(ctx, u)
}

func (s *contactService) load(ctx context.Context, handle string, create bool) (*contact.User, error) {
	log := logger.FromContext(ctx)

	if handle == "" {
		return nil, ErrEmptyHandle
	}

	rec, err := s.contactRepository.Get(ctx, handle)
	if errors.Is(err, store.ErrContactNotFound) && create {
		log.Debug().Msg("starting new contact record")
		return contact.New(handle, ""), nil
	}
	if err != nil {
		return nil, err
	}

	return s.decode(ctx, rec)
}

func (s *contactService) decode(ctx context.Context, rec models.ContactRecord) (*contact.User, error) {
	log := logger.FromContext(ctx)

	u, dropped, err := contact.Unserialize(rec.Data)
	if err != nil {
		log.Err(err).Str("func", "*contactService.decode").Str("handle", rec.Handle).Msg("error decoding contact")
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptRecord, rec.Handle, err)
	}
	if len(dropped) > 0 {
		log.Warn().Strs("names", dropped).Msg("dropped unknown attributes from cached contact")
	}
	return u, nil
}

func (s *contactService) save(ctx context.Context, u *contact.User) error {
	log := logger.FromContext(ctx)

	if u.Temporary() {
		log.Debug().Msg("not persisting temporary contact")
		return nil
	}

	data, err := u.Serialize()
	if err != nil {
		log.Err(err).Str("func", "*contactService.save").Msg("error serializing contact")
		return fmt.Errorf("serialize contact: %w", err)
	}

	rec := models.ContactRecord{
		Handle:    u.Handle(),
		Data:      data,
		Pending:   u.PendingCount(),
		UpdatedAt: s.now(),
	}
	if err = s.contactRepository.Save(ctx, rec); err != nil {
		log.Err(err).Str("func", "*contactService.save").Msg("error saving contact")
		return fmt.Errorf("save contact: %w", err)
	}
	return nil
}

func pendingOf(u *contact.User) PendingContact {
	keys := u.Changed()
	covered := make(map[attr.ChangeKey]struct{}, len(keys))
	for _, k := range keys {
		covered[k] = struct{}{}
	}

	pc := PendingContact{Handle: u.Handle(), Keys: keys}
	for _, e := range u.AttributeEntries() {
		if _, ok := covered[attr.KeyFor(e.Kind)]; ok {
			pc.Attributes = append(pc.Attributes, e)
		}
	}
	return pc
}
