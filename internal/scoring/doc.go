// Package scoring turns a review text and a star rating into a
// sentiment-corrected rating.
//
// The pipeline is: Normalize and Extract a polarity in [-1, 1], Correct the
// rating by blending it 0.6/0.4 with the rescaled polarity, blend the corrected
// rating 0.7/0.3 with a forecast, and Classify the gap between the given and
// corrected rating into a risk tier. Inputs out of range are rejected with an
// *InputError; only outputs are clamped to [1, 5].
//
// Two "overrated" notions exist on purpose. A single scored review is
// overrated when its final rating is strictly below the given rating
// (Result.Overrated). In aggregate reporting a review is overrated when its
// overrated index exceeds the High threshold (Thresholds.Overrated).
package scoring
