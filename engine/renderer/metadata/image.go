package metadata

/**
 * @brief A structure to hold decoded image data, ready for upload.
 */
type ImageResourceData struct {
	/** @brief The number of channels after expansion. */
	ChannelCount uint8
	/** @brief The number of channels in the source file. */
	SourceChannelCount uint8
	/** @brief Bits per channel: 8, 16 or 32 (float). */
	BitDepth uint8
	/** @brief The width of the image. */
	Width uint32
	/** @brief The height of the image. */
	Height uint32
	/** @brief Tightly packed pixel data, rows top to bottom. */
	Pixels []uint8
}

/** @brief Parameters used when loading an image. */
type ImageResourceParams struct {
	/** @brief Indicates if the image should be flipped on the y-axis when loaded. */
	FlipY bool
}
