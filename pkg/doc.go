// Package pkg provides the core libraries for tspstudio TSP art.
//
// # Overview
//
// tspstudio draws an image as one continuous line per color channel. Points
// are placed so their density follows the ink of the channel, a tour through
// them is found, and the tour is drawn with a stroke whose width follows the
// ink at each point. The pkg directory is organized into these areas:
//
//  1. Sampling: [density], [stipple], [channel], [geom]
//  2. Solving: [tour] (local search), [neos] (remote Concorde jobs)
//  3. Orchestration: [studio] (study state, job state machine, orchestrator)
//  4. Output: [render], [io]
//  5. Infrastructure: [store], [cache], [httputil], [observability], [statusapi]
//  6. Orchestration of local stages: [pipeline]
//
// # Architecture
//
//	image
//	  ↓
//	[channel] split into gray channels (gray, RGB or CMYK)
//	  ↓
//	[stipple] rejection sampling + weighted Lloyd relaxation
//	  ↓
//	[studio] white filter, ink factors, job state per channel
//	  ↓
//	[tour] or [neos] tour per channel
//	  ↓
//	[render] variable-width lines composed per mode → PNG/SVG
//
// # Quick Start
//
//	img, _ := imaging.Open("cat.png")
//	s, _ := studio.New(img, channel.CMYK, studio.DefaultSettings())
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, err := runner.Execute(ctx, s, pipeline.Options{Formats: []string{"png"}})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("cat_tsp.png", result.Artifacts["png"], 0o644)
//
// For remote solving, build a [studio.Orchestrator] with a connector that
// dials [neos.Dial] and call SolveOnline; progress can be persisted with
// [studio.WithStore] and served with [statusapi].
package pkg
