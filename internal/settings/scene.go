package settings

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/appengine-ltd/dailysim/internal/placement"
)

type SceneEntity struct {
	ID       string         `yaml:"id"`
	Position placement.Vec3 `yaml:"position"`
	Rotation placement.Vec3 `yaml:"rotation"`
}

func (e SceneEntity) Handle() *placement.Handle {
	return placement.NewHandle(e.ID, placement.Transform{Position: e.Position, Rotation: e.Rotation})
}

// Scene lists the anchors and NPCs present at startup.
type Scene struct {
	Anchors []SceneEntity `yaml:"anchors"`
	NPCs    []SceneEntity `yaml:"npcs"`
}

func LoadScene(path string) (Scene, error) {
	var sc Scene
	raw, err := os.ReadFile(path)
	if err != nil {
		return sc, err
	}
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return sc, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}
