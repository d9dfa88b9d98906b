package classify

import (
	"fmt"

	"pdmotion/internal/epoch"
	"pdmotion/internal/features"
	"pdmotion/internal/signal"
)

// Canonical channel names the model-backed classifiers expose to feature
// extraction. Trained artifacts declare their feature schemas over these.
const (
	ChannelXGait   = "x_gait"
	ChannelYGait   = "y_gait"
	ChannelZGait   = "z_gait"
	ChannelPC1Gait = "pc1_gait"

	ChannelXTremor   = "x_tremor"
	ChannelYTremor   = "y_tremor"
	ChannelZTremor   = "z_tremor"
	ChannelPC1Tremor = "pc1_tremor"

	ChannelXMove   = "x_move"
	ChannelYMove   = "y_move"
	ChannelZMove   = "z_move"
	ChannelPC1Move = "pc1_move"
)

// addBandChannels cleans the epoch with the band and registers the three
// axis channels plus their first principal component under the given names.
func addBandChannels(cs *features.ChannelSet, e *epoch.Epoch, band signal.Band, xName, yName, zName, pcName string) error {
	cleaned, err := signal.Clean(e, band)
	if err != nil {
		return fmt.Errorf("isolate band %s: %w", band, err)
	}
	cs.Add(xName, cleaned.X)
	cs.Add(yName, cleaned.Y)
	cs.Add(zName, cleaned.Z)

	pc, err := signal.FirstPrincipalComponent(cleaned.X, cleaned.Y, cleaned.Z)
	if err != nil {
		return fmt.Errorf("principal component of band %s: %w", band, err)
	}
	cs.Add(pcName, pc)
	return nil
}
