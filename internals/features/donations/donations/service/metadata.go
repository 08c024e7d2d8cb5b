package service

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"crowdfund_backend/internals/features/payment/gateway"
	"crowdfund_backend/internals/helpers/apperr"
)

// DonationMetadata is the checkout metadata after it came back from the
// processor. Nothing from the raw bag is used before it parses.
type DonationMetadata struct {
	CampaignID uuid.UUID
	DonorID    uuid.UUID
	Amount     int64
}

func ParseMetadata(raw map[string]string) (DonationMetadata, error) {
	var out DonationMetadata
	if len(raw) == 0 {
		return out, apperr.MetadataParse("payment carries no donation metadata")
	}

	var err error
	if out.CampaignID, err = parseUUID(raw, gateway.MetaCampaignID); err != nil {
		return out, err
	}
	if out.DonorID, err = parseUUID(raw, gateway.MetaDonorID); err != nil {
		return out, err
	}

	s := wholeNumber(strings.TrimSpace(raw[gateway.MetaAmount]))
	amount, perr := strconv.ParseInt(s, 10, 64)
	if perr != nil {
		return out, apperr.MetadataParse("metadata %s=%q is not an integer amount", gateway.MetaAmount, raw[gateway.MetaAmount])
	}
	if amount <= 0 {
		return out, apperr.MetadataParse("metadata %s must be positive", gateway.MetaAmount)
	}
	out.Amount = amount
	return out, nil
}

func parseUUID(raw map[string]string, key string) (uuid.UUID, error) {
	v, ok := raw[key]
	if !ok || strings.TrimSpace(v) == "" {
		return uuid.Nil, apperr.MetadataParse("metadata %s is missing", key)
	}
	id, err := uuid.Parse(strings.TrimSpace(v))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apperr.MetadataParse("metadata %s=%q is not a valid id", key, v)
	}
	return id, nil
}

// wholeNumber drops a fractional part made only of zeros ("500.00", "500.0").
// Midtrans echoes amounts that way.
func wholeNumber(s string) string {
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return s
	}
	if strings.Trim(s[i+1:], "0") != "" {
		return s
	}
	return s[:i]
}
