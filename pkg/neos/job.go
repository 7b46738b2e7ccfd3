package neos

import (
	"strings"

	"github.com/matzehuels/tspstudio/pkg/geom"
	tspio "github.com/matzehuels/tspstudio/pkg/io"
)

// Solver settings sent with every job.
const (
	Category    = "co"
	Solver      = "concorde"
	InputMethod = "TSP"
)

// JobXML returns the submission document for a Concorde solve of pts on
// behalf of email.
func JobXML(email string, pts []geom.Point) string {
	var b strings.Builder
	b.WriteString("<document>\n")
	b.WriteString("<category>" + Category + "</category>\n")
	b.WriteString("<solver>" + Solver + "</solver>\n")
	b.WriteString("<inputMethod>" + InputMethod + "</inputMethod>\n")
	b.WriteString("<email><![CDATA[" + email + "]]></email>\n")
	b.WriteString("<tsp><![CDATA[\n")
	b.WriteString(tspio.TSPLIB(pts))
	b.WriteString("]]></tsp>\n")
	b.WriteString("<ALGTYPE><![CDATA[con]]></ALGTYPE>\n")
	b.WriteString("<RDTYPE><![CDATA[fixed]]></RDTYPE>\n")
	b.WriteString("<PLTYPE><![CDATA[no]]></PLTYPE>\n")
	b.WriteString("<comment><![CDATA[]]></comment>\n")
	b.WriteString("</document>")
	return b.String()
}
