package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const version = "1.0.0"

var (
	serverAddr string
	namespace  string
	timeout    time.Duration
)

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(1)
	}

	flag.StringVar(&serverAddr, "server", "http://localhost:8080", "REST API base URL")
	flag.StringVar(&namespace, "namespace", "default", "namespace to use")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")

	command := os.Args[1]

	switch command {
	case "insert":
		handleInsert(os.Args[2:])
	case "search":
		handleSearch(os.Args[2:])
	case "hybrid-search":
		handleHybridSearch(os.Args[2:])
	case "delete":
		handleDelete(os.Args[2:])
	case "update":
		handleUpdate(os.Args[2:])
	case "stats":
		handleStats(os.Args[2:])
	case "health":
		handleHealth(os.Args[2:])
	case "version":
		fmt.Printf("vector-cli version %s\n", version)
	case "help", "-h", "--help":
		showUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		showUsage()
		os.Exit(1)
	}
}

func httpClient() *http.Client {
	return &http.Client{Timeout: timeout}
}

func doRequest(method, path string, body interface{}) map[string]interface{} {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			fmt.Printf("Error encoding request: %v\n", err)
			os.Exit(1)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, strings.TrimRight(serverAddr, "/")+path, reader)
	if err != nil {
		fmt.Printf("Error building request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient().Do(req)
	if err != nil {
		fmt.Printf("Failed to reach server at %s: %v\n", serverAddr, err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Printf("Error decoding response: %v\n", err)
		os.Exit(1)
	}
	return out
}

func handleInsert(args []string) {
	fs := flag.NewFlagSet("insert", flag.ExitOnError)
	var (
		vectorStr   = fs.String("vector", "", "vector as JSON array (required)")
		metadataStr = fs.String("metadata", "{}", "metadata as JSON object")
		text        = fs.String("text", "", "text content for full-text search")
		id          = fs.String("id", "", "vector ID (default: auto-generated)")
	)
	fs.StringVar(&serverAddr, "server", serverAddr, "REST API base URL")
	fs.DurationVar(&timeout, "timeout", timeout, "request timeout")
	fs.StringVar(&namespace, "namespace", namespace, "namespace")
	fs.Parse(args)

	if *vectorStr == "" {
		fmt.Println("Error: -vector is required")
		fs.Usage()
		os.Exit(1)
	}

	var vec []float64
	if err := json.Unmarshal([]byte(*vectorStr), &vec); err != nil {
		fmt.Printf("Error parsing vector: %v\n", err)
		os.Exit(1)
	}

	var metadata map[string]string
	if err := json.Unmarshal([]byte(*metadataStr), &metadata); err != nil {
		fmt.Printf("Error parsing metadata: %v\n", err)
		os.Exit(1)
	}

	resp := doRequest(http.MethodPost, "/v1/vectors", map[string]interface{}{
		"namespace": namespace,
		"id":        *id,
		"vector":    vec,
		"metadata":  metadata,
		"text":      *text,
	})

	if success, _ := resp["success"].(bool); !success {
		fmt.Printf("Insert failed: %v\n", resp["error"])
		os.Exit(1)
	}
	fmt.Printf("Inserted vector with ID: %v\n", resp["id"])
}

func handleSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	var (
		queryVectorStr = fs.String("query", "", "query vector as JSON array (required)")
		k              = fs.Int("k", 10, "number of results to return")
		showVector     = fs.Bool("show-vector", false, "show vectors in results")
	)
	fs.StringVar(&serverAddr, "server", serverAddr, "REST API base URL")
	fs.DurationVar(&timeout, "timeout", timeout, "request timeout")
	fs.StringVar(&namespace, "namespace", namespace, "namespace")
	fs.Parse(args)

	if *queryVectorStr == "" {
		fmt.Println("Error: -query is required")
		fs.Usage()
		os.Exit(1)
	}

	var vec []float64
	if err := json.Unmarshal([]byte(*queryVectorStr), &vec); err != nil {
		fmt.Printf("Error parsing query vector: %v\n", err)
		os.Exit(1)
	}

	resp := doRequest(http.MethodPost, "/v1/vectors/search", map[string]interface{}{
		"namespace":    namespace,
		"query_vector": vec,
		"k":            *k,
	})
	displaySearchResults(resp, *showVector)
}

func handleHybridSearch(args []string) {
	fs := flag.NewFlagSet("hybrid-search", flag.ExitOnError)
	var (
		queryVectorStr = fs.String("query-vector", "", "query vector as JSON array (required)")
		queryText      = fs.String("query-text", "", "query text (required)")
		k              = fs.Int("k", 10, "number of results to return")
		showVector     = fs.Bool("show-vector", false, "show vectors in results")
	)
	fs.StringVar(&serverAddr, "server", serverAddr, "REST API base URL")
	fs.DurationVar(&timeout, "timeout", timeout, "request timeout")
	fs.StringVar(&namespace, "namespace", namespace, "namespace")
	fs.Parse(args)

	if *queryVectorStr == "" || *queryText == "" {
		fmt.Println("Error: both -query-vector and -query-text are required")
		fs.Usage()
		os.Exit(1)
	}

	var vec []float64
	if err := json.Unmarshal([]byte(*queryVectorStr), &vec); err != nil {
		fmt.Printf("Error parsing query vector: %v\n", err)
		os.Exit(1)
	}

	resp := doRequest(http.MethodPost, "/v1/vectors/hybrid-search", map[string]interface{}{
		"namespace":    namespace,
		"query_vector": vec,
		"query_text":   *queryText,
		"k":            *k,
	})
	displaySearchResults(resp, *showVector)
}

func handleDelete(args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.String("id", "", "ID of vector to delete (required)")
	fs.StringVar(&serverAddr, "server", serverAddr, "REST API base URL")
	fs.DurationVar(&timeout, "timeout", timeout, "request timeout")
	fs.StringVar(&namespace, "namespace", namespace, "namespace")
	fs.Parse(args)

	if *id == "" {
		fmt.Println("Error: -id is required")
		fs.Usage()
		os.Exit(1)
	}

	resp := doRequest(http.MethodPost, "/v1/vectors/delete", map[string]interface{}{
		"namespace": namespace,
		"id":        *id,
	})
	if success, _ := resp["success"].(bool); !success {
		fmt.Printf("Delete failed: %v\n", resp["error"])
		os.Exit(1)
	}
	fmt.Printf("Deleted %v vector(s)\n", resp["deleted_count"])
}

func handleUpdate(args []string) {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	var (
		id          = fs.String("id", "", "ID of vector to update (required)")
		vectorStr   = fs.String("vector", "", "new vector as JSON array")
		metadataStr = fs.String("metadata", "", "new metadata as JSON object")
		text        = fs.String("text", "", "new text content")
	)
	fs.StringVar(&serverAddr, "server", serverAddr, "REST API base URL")
	fs.DurationVar(&timeout, "timeout", timeout, "request timeout")
	fs.StringVar(&namespace, "namespace", namespace, "namespace")
	fs.Parse(args)

	if *id == "" {
		fmt.Println("Error: -id is required")
		fs.Usage()
		os.Exit(1)
	}

	body := map[string]interface{}{"namespace": namespace, "id": *id}
	if *vectorStr != "" {
		var vec []float64
		if err := json.Unmarshal([]byte(*vectorStr), &vec); err != nil {
			fmt.Printf("Error parsing vector: %v\n", err)
			os.Exit(1)
		}
		body["vector"] = vec
	}
	if *metadataStr != "" {
		var metadata map[string]string
		if err := json.Unmarshal([]byte(*metadataStr), &metadata); err != nil {
			fmt.Printf("Error parsing metadata: %v\n", err)
			os.Exit(1)
		}
		body["metadata"] = metadata
	}
	if *text != "" {
		body["text"] = *text
	}

	resp := doRequest(http.MethodPatch, "/v1/vectors/"+namespace+"/"+*id, body)
	if success, _ := resp["success"].(bool); !success {
		fmt.Printf("Update failed: %v\n", resp["error"])
		os.Exit(1)
	}
	fmt.Printf("Updated vector %s\n", *id)
}

func handleStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.StringVar(&serverAddr, "server", serverAddr, "REST API base URL")
	fs.DurationVar(&timeout, "timeout", timeout, "request timeout")
	fs.Parse(args)

	resp := doRequest(http.MethodGet, "/v1/stats", nil)

	fmt.Println("=== Database Statistics ===")
	fmt.Printf("Total Vectors:     %v\n", resp["total_vectors"])
	fmt.Printf("Total Namespaces:  %v\n", resp["total_namespaces"])
	fmt.Printf("Memory Usage:      %v bytes\n", resp["memory_usage_bytes"])

	if nsStats, ok := resp["namespace_stats"].(map[string]interface{}); ok {
		fmt.Println("\nNamespace Statistics:")
		for ns, raw := range nsStats {
			stats, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			fmt.Printf("  %s:\n", ns)
			fmt.Printf("    Vectors:    %v\n", stats["vector_count"])
			fmt.Printf("    Dimensions: %v\n", stats["dimensions"])
			fmt.Printf("    Memory:     %v bytes\n", stats["memory_bytes"])
		}
	}
}

func handleHealth(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	fs.StringVar(&serverAddr, "server", serverAddr, "REST API base URL")
	fs.DurationVar(&timeout, "timeout", timeout, "request timeout")
	fs.Parse(args)

	resp := doRequest(http.MethodGet, "/v1/health", nil)

	fmt.Printf("Status:  %v\n", resp["status"])
	fmt.Printf("Version: %v\n", resp["version"])
	fmt.Printf("Uptime:  %v seconds\n", resp["uptime_seconds"])

	if resp["status"] != "healthy" {
		os.Exit(1)
	}
}

func displaySearchResults(resp map[string]interface{}, showVector bool) {
	if errMsg, ok := resp["error"].(string); ok && errMsg != "" {
		fmt.Printf("Search error: %s\n", errMsg)
		os.Exit(1)
	}

	fmt.Printf("Found %v results (search took %.2fms)\n\n", resp["total_results"], toFloat(resp["search_time_ms"]))

	results, _ := resp["results"].([]interface{})
	if len(results) == 0 {
		fmt.Println("No results found")
		return
	}

	for i, raw := range results {
		result, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		fmt.Printf("Result %d:\n", i+1)
		fmt.Printf("  ID:       %v\n", result["id"])
		fmt.Printf("  Distance: %.6f\n", toFloat(result["distance"]))

		if metadata, ok := result["metadata"].(map[string]interface{}); ok && len(metadata) > 0 {
			fmt.Println("  Metadata:")
			for k, v := range metadata {
				fmt.Printf("    %s: %v\n", k, v)
			}
		}

		if text, ok := result["text"].(string); ok && text != "" {
			fmt.Printf("  Text:     %s\n", truncateString(text, 80))
		}

		if showVector {
			if vec, ok := result["vector"].([]interface{}); ok && len(vec) > 0 {
				fmt.Printf("  Vector:   %s\n", formatVector(vec))
			}
		}

		fmt.Println()
	}
}

func toFloat(v interface{}) float64 {
	f, _ := v.(float64)
	return f
}

func formatVector(vec []interface{}) string {
	if len(vec) == 0 {
		return "[]"
	}

	if len(vec) > 10 {
		first := make([]string, 5)
		last := make([]string, 5)
		for i := 0; i < 5; i++ {
			first[i] = fmt.Sprintf("%.4f", toFloat(vec[i]))
			last[i] = fmt.Sprintf("%.4f", toFloat(vec[len(vec)-5+i]))
		}
		return fmt.Sprintf("[%s ... %s] (dim=%d)", strings.Join(first, ", "), strings.Join(last, ", "), len(vec))
	}

	elements := make([]string, len(vec))
	for i, v := range vec {
		elements[i] = fmt.Sprintf("%.4f", toFloat(v))
	}
	return fmt.Sprintf("[%s]", strings.Join(elements, ", "))
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func showUsage() {
	fmt.Println(`Vector Database CLI - client for the vector search REST API

Usage:
  vector-cli <command> [options]

Commands:
  insert          Insert a vector with metadata
  search          Search for similar vectors
  hybrid-search   Hybrid search (vector + text)
  delete          Delete a vector by ID
  update          Update a vector
  stats           Get database statistics
  health          Check server health
  version         Show version
  help            Show this help message

Global Options:
  -server URL       REST API base URL (default: http://localhost:8080)
  -namespace NAME   Namespace to use (default: default; not accepted by stats, health)
  -timeout DURATION Request timeout (default: 30s)

Examples:

  # Insert a vector
  vector-cli insert \
    -vector '[0.1, 0.2, 0.3]' \
    -metadata '{"title": "Document 1", "category": "tech"}' \
    -text "This is a test document"

  # Search for similar vectors
  vector-cli search \
    -query '[0.15, 0.25, 0.35]' \
    -k 10

  # Hybrid search (vector + text)
  vector-cli hybrid-search \
    -query-vector '[0.1, 0.2, 0.3]' \
    -query-text "machine learning" \
    -k 10

  # Delete a vector
  vector-cli delete -id 12345

  # Update a vector
  vector-cli update \
    -id 12345 \
    -metadata '{"category": "updated"}' \
    -text "Updated text"

  # Get database statistics
  vector-cli stats

  # Check server health
  vector-cli health

  # Use custom server and namespace
  vector-cli search \
    -server http://my-server:8080 \
    -namespace production \
    -query '[0.1, 0.2]'`)
}
