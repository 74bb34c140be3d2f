package graph

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// NodeData is the row shape of the legacy NodeData CSV deck (spec §6):
// `node_id, processing_delay, reliability`.
type NodeData struct {
	NodeID          int64
	ProcessingDelay float64
	Reliability     float64
}

// EdgeData is the row shape of the legacy EdgeData CSV deck:
// `u, v, bandwidth, delay, reliability`.
type EdgeData struct {
	U, V                   int64
	Bandwidth, Delay, Reliability float64
}

// DemandData is the row shape of the legacy DemandData CSV deck:
// `id, source, destination, demand_mbps`.
type DemandData struct {
	ID                     string
	Source, Destination    int64
	DemandMbps             float64
}

func parseDecimal(field string) (float64, error) {
	// Accept both "." and "," as decimal separators per spec §6.
	return strconv.ParseFloat(strings.Replace(field, ",", ".", 1), 64)
}

// LoadNodesCSV parses the NodeData deck and applies it onto g via AddNode.
func LoadNodesCSV(g *Graph, r io.Reader) error {
	rows, err := readCSVRows(r, 3)
	if err != nil {
		return fmt.Errorf("graph: load nodes: %w", err)
	}

	for i, row := range rows {
		id, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
		if err != nil {
			return fmt.Errorf("graph: node row %d: invalid node_id: %w", i, err)
		}
		delay, err := parseDecimal(row[1])
		if err != nil {
			return fmt.Errorf("graph: node row %d: invalid processing_delay: %w", i, err)
		}
		rel, err := parseDecimal(row[2])
		if err != nil {
			return fmt.Errorf("graph: node row %d: invalid reliability: %w", i, err)
		}
		if err := g.AddNode(&Node{ID: id, ProcessingDelay: delay, NodeReliability: rel}); err != nil {
			return fmt.Errorf("graph: node row %d: %w", i, err)
		}
	}
	return nil
}

// LoadEdgesCSV parses the EdgeData deck and applies it onto g via AddEdge.
func LoadEdgesCSV(g *Graph, r io.Reader) error {
	rows, err := readCSVRows(r, 5)
	if err != nil {
		return fmt.Errorf("graph: load edges: %w", err)
	}

	for i, row := range rows {
		u, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
		if err != nil {
			return fmt.Errorf("graph: edge row %d: invalid u: %w", i, err)
		}
		v, err := strconv.ParseInt(strings.TrimSpace(row[1]), 10, 64)
		if err != nil {
			return fmt.Errorf("graph: edge row %d: invalid v: %w", i, err)
		}
		bw, err := parseDecimal(row[2])
		if err != nil {
			return fmt.Errorf("graph: edge row %d: invalid bandwidth: %w", i, err)
		}
		delay, err := parseDecimal(row[3])
		if err != nil {
			return fmt.Errorf("graph: edge row %d: invalid delay: %w", i, err)
		}
		rel, err := parseDecimal(row[4])
		if err != nil {
			return fmt.Errorf("graph: edge row %d: invalid reliability: %w", i, err)
		}
		if err := g.AddEdge(&Edge{From: u, To: v, Bandwidth: bw, LinkDelay: delay, LinkReliability: rel}); err != nil {
			return fmt.Errorf("graph: edge row %d: %w", i, err)
		}
	}
	return nil
}

// LoadDemandsCSV parses the DemandData deck into a slice of DemandData rows.
// Graph itself has no demand state, so this is a pure parse, not applied to
// g; nothing in this repository converts the rows into TestCase values.
func LoadDemandsCSV(r io.Reader) ([]DemandData, error) {
	rows, err := readCSVRows(r, 4)
	if err != nil {
		return nil, fmt.Errorf("graph: load demands: %w", err)
	}

	out := make([]DemandData, 0, len(rows))
	for i, row := range rows {
		src, err := strconv.ParseInt(strings.TrimSpace(row[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("graph: demand row %d: invalid source: %w", i, err)
		}
		dst, err := strconv.ParseInt(strings.TrimSpace(row[2]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("graph: demand row %d: invalid destination: %w", i, err)
		}
		bw, err := parseDecimal(row[3])
		if err != nil {
			return nil, fmt.Errorf("graph: demand row %d: invalid demand_mbps: %w", i, err)
		}
		out = append(out, DemandData{ID: strings.TrimSpace(row[0]), Source: src, Destination: dst, DemandMbps: bw})
	}
	return out, nil
}

// readCSVRows reads a CSV with a header row and returns the data rows,
// validating each has the expected column count.
func readCSVRows(r io.Reader, cols int) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = cols

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil // drop header
}

// SaveNodesCSV writes the NodeData deck for every node in g.
func SaveNodesCSV(g *Graph, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"node_id", "processing_delay", "reliability"}); err != nil {
		return err
	}
	for _, id := range g.NodeIDs() {
		n, _ := g.Node(id)
		row := []string{
			strconv.FormatInt(n.ID, 10),
			strconv.FormatFloat(n.ProcessingDelay, 'f', -1, 64),
			strconv.FormatFloat(n.NodeReliability, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return cw.Error()
}

// SaveEdgesCSV writes the EdgeData deck, one row per undirected edge.
func SaveEdgesCSV(g *Graph, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"u", "v", "bandwidth", "delay", "reliability"}); err != nil {
		return err
	}

	seen := make(map[[2]int64]bool)
	for _, u := range g.NodeIDs() {
		for _, v := range g.Neighbors(u) {
			key := [2]int64{u, v}
			rkey := [2]int64{v, u}
			if seen[key] || seen[rkey] {
				continue
			}
			seen[key] = true

			e, _ := g.Edge(u, v)
			row := []string{
				strconv.FormatInt(u, 10),
				strconv.FormatInt(v, 10),
				strconv.FormatFloat(e.Bandwidth, 'f', -1, 64),
				strconv.FormatFloat(e.LinkDelay, 'f', -1, 64),
				strconv.FormatFloat(e.LinkReliability, 'f', -1, 64),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	return cw.Error()
}
