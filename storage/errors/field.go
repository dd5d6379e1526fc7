package errors

// ChannelNotFound 通道未找到
func ChannelNotFound(channel string, available []string) error {
	return New(ErrChannelNotFound).
		Op("find_channel").
		Context("channel", channel).
		Context("available_channels", available).
		Build()
}

// LayerNotFound 层未找到
func LayerNotFound(channel, layer string, available []string) error {
	return New(ErrLayerNotFound).
		Op("find_layer").
		Context("channel", channel).
		Context("layer", layer).
		Context("available_layers", available).
		Build()
}

// TypeMismatch 类型不匹配
func TypeMismatch(op string, layer string, expected, actual string) error {
	return New(ErrTypeMismatch).
		Op(op).
		Context("layer", layer).
		Context("expected_type", expected).
		Context("actual_type", actual).
		Build()
}

// OutOfBounds reports a voxel index outside the layer.
func OutOfBounds(op string, layer string, index, limit uint64) error {
	return New(ErrOutOfBounds).
		Op(op).
		Context("layer", layer).
		Context("index", index).
		Context("limit", limit).
		Build()
}

// ValidationFailed 验证失败
func ValidationFailed(op string, path string, details string) error {
	return New(ErrInvalidArgument).
		Op(op).
		Path(path).
		Context("validation_error", details).
		Build()
}
