package enums

import "fmt"

// AttachmentType classifies a document attached to an order.
type AttachmentType string

const (
	AttachmentTypeIDCard      AttachmentType = "id_card"
	AttachmentTypePaymentSlip AttachmentType = "payment_slip"
	AttachmentTypeOther       AttachmentType = "other"
)

var validAttachmentTypes = []AttachmentType{
	AttachmentTypeIDCard,
	AttachmentTypePaymentSlip,
	AttachmentTypeOther,
}

// String implements fmt.Stringer.
func (a AttachmentType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AttachmentType.
func (a AttachmentType) IsValid() bool {
	for _, candidate := range validAttachmentTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAttachmentType converts raw input into an AttachmentType.
func ParseAttachmentType(value string) (AttachmentType, error) {
	for _, candidate := range validAttachmentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid attachment type %q", value)
}
