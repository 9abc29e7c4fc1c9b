package metadata

import "fmt"

/** @brief Represents supported texture filtering modes. */
type TextureFilter int

const (
	/** @brief Linear (i.e. bilinear) filtering.*/
	TextureFilterModeLinear TextureFilter = iota
	/** @brief Nearest-neighbor filtering. */
	TextureFilterModeNearest
)

type TextureRepeat int

const (
	TextureRepeatRepeat TextureRepeat = iota
	TextureRepeatMirroredRepeat
	TextureRepeatClampToEdge
	TextureRepeatClampToBorder
)

type SamplerCreateInfo struct {
	MinFilter TextureFilter
	MagFilter TextureFilter
	MipFilter TextureFilter
	WrapU     TextureRepeat
	WrapV     TextureRepeat
	WrapW     TextureRepeat
	// 0 or 1 disables anisotropic filtering.
	MaxAnisotropy float32
	MinLod        float32
	// 0 means no clamping.
	MaxLod float32
}

func DefaultSampler() SamplerCreateInfo {
	return SamplerCreateInfo{
		MinFilter: TextureFilterModeLinear,
		MagFilter: TextureFilterModeLinear,
		MipFilter: TextureFilterModeLinear,
		WrapU:     TextureRepeatRepeat,
		WrapV:     TextureRepeatRepeat,
		WrapW:     TextureRepeatRepeat,
	}
}

func (ci *SamplerCreateInfo) Validate() error {
	for _, f := range []TextureFilter{ci.MinFilter, ci.MagFilter, ci.MipFilter} {
		if f < TextureFilterModeLinear || f > TextureFilterModeNearest {
			return fmt.Errorf("%w: sampler: unknown filter %d", ErrInvalidDescriptor, f)
		}
	}
	for _, r := range []TextureRepeat{ci.WrapU, ci.WrapV, ci.WrapW} {
		if r < TextureRepeatRepeat || r > TextureRepeatClampToBorder {
			return fmt.Errorf("%w: sampler: unknown wrap mode %d", ErrInvalidDescriptor, r)
		}
	}
	if ci.MaxAnisotropy < 0 || ci.MaxAnisotropy > 16 {
		return fmt.Errorf("%w: sampler: anisotropy %.1f outside [0, 16]", ErrInvalidDescriptor, ci.MaxAnisotropy)
	}
	if ci.MinLod < 0 || (ci.MaxLod != 0 && ci.MaxLod < ci.MinLod) {
		return fmt.Errorf("%w: sampler: invalid lod range [%.1f, %.1f]", ErrInvalidDescriptor, ci.MinLod, ci.MaxLod)
	}
	return nil
}
