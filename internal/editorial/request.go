package editorial

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Variant selects the result shape the model is asked for.
type Variant string

const (
	// VariantEditorial is the default profile-and-editorial result.
	VariantEditorial Variant = "editorial"
	// VariantCapsule builds a capsule wardrobe from the user's own items.
	VariantCapsule Variant = "capsule"
	// VariantBrandKit distills a style identity from brand references.
	VariantBrandKit Variant = "brand_kit"
)

var requiredKeys = map[Variant][]string{
	VariantEditorial: {"profile", "editorial"},
	VariantCapsule:   {"capsule", "looks"},
	VariantBrandKit:  {"identity", "palette", "pieces"},
}

// Variants lists the supported variants.
var Variants = []Variant{VariantEditorial, VariantCapsule, VariantBrandKit}

// ParseVariant resolves a variant name. Empty means the default variant.
func ParseVariant(s string) (Variant, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	if s == "" {
		return VariantEditorial, nil
	}
	v := Variant(s)
	if _, ok := requiredKeys[v]; !ok {
		return "", Errorf(KindInvalidInput, "unknown variant %q", s)
	}
	return v, nil
}

// RequiredKeys returns the top-level keys every result of v must carry.
func (v Variant) RequiredKeys() []string {
	keys := requiredKeys[v]
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// UsesItems reports whether v is driven by the free-text wardrobe list.
func (v Variant) UsesItems() bool { return v == VariantCapsule }

// Mode describes which reference kinds a request carries.
type Mode string

const (
	ModeVisual   Mode = "visual"
	ModeBrands   Mode = "brands"
	ModeBoth     Mode = "both"
	ModeWardrobe Mode = "wardrobe"
)

const (
	VisualRefCount = 3
	MinBrandRefs   = 2
	MaxBrandRefs   = 3

	maxItemsChars   = 2000
	maxContextChars = 500
	maxBrandChars   = 60
)

// Request is one user submission.
type Request struct {
	Variant   Variant  `json:"variant,omitempty"`
	Images    []string `json:"images,omitempty"`
	IsURLs    bool     `json:"isUrls"`
	BrandRefs []string `json:"brandRefs,omitempty"`
	Items     string   `json:"items,omitempty"`
	Category  string   `json:"category,omitempty"`
	Tone      string   `json:"tone,omitempty"`
	Note      string   `json:"note,omitempty"`
}

// ImageRef is a displayable image reference: a data URI or an http(s) URL.
type ImageRef struct {
	Ref   string
	IsURL bool
}

// Clean returns a copy with whitespace trimmed, empty references dropped
// and the default variant filled in.
func (r Request) Clean() Request {
	out := r
	if out.Variant == "" {
		out.Variant = VariantEditorial
	}
	out.Images = compact(r.Images)
	out.BrandRefs = compact(r.BrandRefs)
	out.Items = strings.TrimSpace(r.Items)
	out.Category = strings.TrimSpace(r.Category)
	out.Tone = strings.TrimSpace(r.Tone)
	out.Note = strings.TrimSpace(r.Note)
	return out
}

// Mode reports which reference kinds are present.
func (r Request) Mode() Mode {
	switch hasVisual, hasBrands := len(r.Images) > 0, len(r.BrandRefs) > 0; {
	case hasVisual && hasBrands:
		return ModeBoth
	case hasVisual:
		return ModeVisual
	case hasBrands:
		return ModeBrands
	default:
		return ModeWardrobe
	}
}

// ImageRefs returns the visual references in submission order.
func (r Request) ImageRefs() []ImageRef {
	refs := make([]ImageRef, 0, len(r.Images))
	for _, img := range r.Images {
		refs = append(refs, ImageRef{Ref: img, IsURL: r.IsURLs})
	}
	return refs
}

// Validate checks the request shape. It is meant to run on a cleaned
// request and only reports invalid_input; content sufficiency is gated
// separately.
func (r Request) Validate() error {
	if _, ok := requiredKeys[r.Variant]; !ok {
		return Errorf(KindInvalidInput, "unknown variant %q", r.Variant)
	}

	if n := len(r.Images); n > 0 && n != VisualRefCount {
		return Errorf(KindInvalidInput, "expected exactly %d images, got %d", VisualRefCount, n)
	}
	for i, img := range r.Images {
		if err := validateImageRef(img, r.IsURLs); err != nil {
			return Errorf(KindInvalidInput, "image %d: %s", i+1, err)
		}
	}

	if n := len(r.BrandRefs); n > 0 && (n < MinBrandRefs || n > MaxBrandRefs) {
		return Errorf(KindInvalidInput, "expected %d to %d brand references, got %d", MinBrandRefs, MaxBrandRefs, n)
	}
	for _, b := range r.BrandRefs {
		if utf8.RuneCountInString(b) > maxBrandChars {
			return Errorf(KindInvalidInput, "brand reference %q is too long", b)
		}
	}

	switch r.Variant {
	case VariantEditorial:
		if len(r.Images) == 0 && len(r.BrandRefs) == 0 {
			return NewError(KindInvalidInput, "at least one kind of reference (images or brands) is required")
		}
	case VariantBrandKit:
		if len(r.BrandRefs) == 0 {
			return NewError(KindInvalidInput, "brand references are required for a brand kit")
		}
	}

	if utf8.RuneCountInString(r.Items) > maxItemsChars {
		return Errorf(KindInvalidInput, "item list exceeds %d characters", maxItemsChars)
	}
	for name, v := range map[string]string{"category": r.Category, "tone": r.Tone, "note": r.Note} {
		if utf8.RuneCountInString(v) > maxContextChars {
			return Errorf(KindInvalidInput, "%s exceeds %d characters", name, maxContextChars)
		}
	}
	return nil
}

func validateImageRef(ref string, isURL bool) error {
	if isURL {
		u, err := url.Parse(ref)
		if err != nil {
			return fmt.Errorf("invalid url: %w", err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("expected an absolute http(s) url")
		}
		return nil
	}

	if !strings.HasPrefix(ref, "data:image/") {
		return fmt.Errorf("expected a data:image/* uri")
	}
	idx := strings.Index(ref, ";base64,")
	if idx < 0 || idx+len(";base64,") >= len(ref) {
		return fmt.Errorf("expected base64 image data")
	}
	return nil
}

func compact(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
