package domain

import "errors"

var (
	ErrListingNotFound    = errors.New("listing not found")
	ErrImageNotFound      = errors.New("image not found")
	ErrInvalidListingData = errors.New("invalid listing data")
	ErrPhoneInUse         = errors.New("phone number already in use")
	ErrSlugTaken          = errors.New("slug already taken")
	ErrSlugExhausted      = errors.New("slug allocation attempts exhausted")
	ErrInvalidImageID     = errors.New("invalid image id")
	ErrForbidden          = errors.New("user not authorized to perform this action")
)
