package service

import (
	"context"
	"strings"

	"posales/backend/internal/domain"
)

// UpdateHeader sets the header fields present in req. Choosing an outlet
// fills its address and phone from the directory unless req sets them too.
func (s *Service) UpdateHeader(_ context.Context, id string, req domain.HeaderUpdateRequest) (domain.SessionView, error) {
	sess, err := s.session(id)
	if err != nil {
		return domain.SessionView{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	h := &sess.header
	if req.Salesperson != nil {
		h.Salesperson = strings.TrimSpace(*req.Salesperson)
	}
	if req.Outlet != nil {
		selectOutlet(sess, strings.TrimSpace(*req.Outlet))
	}
	if req.Address != nil {
		h.Address = strings.TrimSpace(*req.Address)
	}
	if req.Phone != nil {
		h.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.PaymentNote != nil {
		h.PaymentNote = strings.TrimSpace(*req.PaymentNote)
	}
	if req.Note != nil {
		h.Note = strings.TrimSpace(*req.Note)
	}
	return s.view(sess), nil
}

func (s *Service) SelectOutlet(ctx context.Context, id string, name string) (domain.SessionView, error) {
	return s.UpdateHeader(ctx, id, domain.HeaderUpdateRequest{Outlet: &name})
}

// selectOutlet clears address and phone for a blank name and copies them for
// a known outlet. An unknown name keeps what was typed.
func selectOutlet(sess *Session, name string) {
	sess.header.Outlet = name
	if name == "" {
		sess.header.Address = ""
		sess.header.Phone = ""
		return
	}
	for _, o := range sess.outlets {
		if o.Name == name {
			sess.header.Address = o.Address
			sess.header.Phone = o.Phone
			return
		}
	}
}

type requiredField struct {
	field string
	label string
	value string
}

// validateHeader checks the required fields in form order and returns the
// header with the payment note normalized to its configured spelling.
func (s *Service) validateHeader(h domain.POHeader) (domain.POHeader, error) {
	required := []requiredField{
		{"salesperson", "Nama Sales", h.Salesperson},
		{"outlet", "Nama Outlet", h.Outlet},
		{"address", "Alamat", h.Address},
		{"phone", "No Telepon", h.Phone},
		{"payment_note", "Keterangan Bayar", h.PaymentNote},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return h, invalid(f.field, f.label+" wajib diisi!")
		}
	}

	for _, method := range s.opts.PaymentMethods {
		if strings.EqualFold(method, strings.TrimSpace(h.PaymentNote)) {
			h.PaymentNote = method
			return h, nil
		}
	}
	return h, invalid("payment_note", "Keterangan Bayar tidak valid!")
}
