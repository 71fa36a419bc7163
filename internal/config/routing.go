package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Routing holds the domain keyword groups that send a turn to the capable model.
type Routing struct {
	Groups map[string][]string `yaml:"groups"`
}

// Keywords flattens every group into one sorted list.
func (r Routing) Keywords() []string {
	names := make([]string, 0, len(r.Groups))
	for name := range r.Groups {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []string
	for _, name := range names {
		out = append(out, r.Groups[name]...)
	}
	return out
}

// DefaultRouting returns the built-in engineering, IoT, data and governance vocabulary.
func DefaultRouting() Routing {
	return Routing{Groups: map[string][]string{
		"engenharia": {
			"engenharia", "software", "código", "python", "golang", "java", "api", "docker",
			"kubernetes", "devops", "algoritmo", "deploy", "backend", "microsserviço", "microsserviços",
		},
		"iot": {
			"iot", "sensor", "sensores", "mqtt", "arduino", "esp32", "raspberry", "embarcado", "telemetria",
		},
		"arquitetura_dados": {
			"sql", "pipeline", "pipelines", "etl", "elt", "data lake", "data warehouse", "lakehouse",
			"spark", "kafka", "índice", "índices", "modelagem", "banco de dados", "postgres", "nosql",
			"airflow", "dbt", "arquitetura",
		},
		"governanca": {
			"lgpd", "gdpr", "governança", "segurança", "privacidade", "criptografia", "compliance",
			"anonimização", "auditoria", "vazamento", "dpo",
		},
	}}
}

// LoadRouting reads keyword groups from a YAML file.
func LoadRouting(path string) (Routing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Routing{}, fmt.Errorf("failed to read routing file: %w", err)
	}
	var routing Routing
	if err := yaml.Unmarshal(data, &routing); err != nil {
		return Routing{}, fmt.Errorf("failed to parse routing file %s: %w", path, err)
	}
	if len(routing.Keywords()) == 0 {
		return Routing{}, fmt.Errorf("routing file %s defines no keywords", path)
	}
	return routing, nil
}
