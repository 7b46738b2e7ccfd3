// Package io reads and writes the file formats tspstudio exchanges with
// other tools: point sets, tour index lists and TSPLIB coordinate files.
//
// # Points JSON
//
// A point set is stored together with its ink factors and the size of the
// image it was sampled from:
//
//	{
//	  "points":  [[12.5, 40.25], [13.0, 41.75]],
//	  "factors": [0.82, 0.79],
//	  "size":    [800, 600]
//	}
//
// "factors" may be omitted; when present it must have one entry per point.
// Use [WriteJSON]/[ReadJSON] for streams and [ExportJSON]/[ImportJSON] for
// files.
//
// # Tour files
//
// A tour is a plain text file with one zero-based point index per line.
// Blank lines are ignored on read. See [WriteTour] and [ReadTour].
//
// # TSPLIB
//
// [WriteTSPLIB] produces the EUC_2D coordinate format understood by
// Concorde and the remote solver:
//
//	NAME: tspart
//	TYPE: TSP
//	DIMENSION: 2
//	EDGE_WEIGHT_TYPE: EUC_2D
//	NODE_COORD_SECTION
//	1 12.500000 40.250000
//	2 13.000000 41.750000
//	EOF
//
// Coordinates are written with six decimals, so a round trip through
// [ReadTSPLIB] reproduces points to within 1e-6. The reader accepts CRLF
// line endings and a missing EOF marker, and places nodes by their index
// rather than by line order.
package io
