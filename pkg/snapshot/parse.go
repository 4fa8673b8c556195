package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"sort"
	"strings"

	"github.com/Jeffail/gabs"
	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"

	snaperrors "github.com/cdnctl/snapdiff/pkg/errors"
	"github.com/cdnctl/snapdiff/pkg/record"
)

// envelopeKey wraps snapshots served by the CDN's API.
const envelopeKey = "response"

var errNotEntitySection = errors.New("not an entity section")

// schema checks the shape of the document before any section is read.
// Entity sections are maps of records; stats are descriptive scalars.
const schema = `{
  "type": "object",
  "properties": {
    "config": {"type": "object"},
    "contentRouters": {"$ref": "#/definitions/entities"},
    "contentServers": {"$ref": "#/definitions/entities"},
    "deliveryServices": {"$ref": "#/definitions/entities"},
    "edgeLocations": {"$ref": "#/definitions/entities"},
    "monitors": {"$ref": "#/definitions/entities"},
    "trafficRouterLocations": {"$ref": "#/definitions/entities"},
    "topologies": {"$ref": "#/definitions/entities"},
    "stats": {
      "type": "object",
      "properties": {
        "CDN_name": {"type": "string"},
        "date": {"type": "integer"},
        "tm_host": {"type": "string"},
        "tm_path": {"type": "string"},
        "tm_user": {"type": "string"},
        "tm_version": {"type": "string"}
      }
    }
  },
  "definitions": {
    "entities": {
      "type": "object",
      "additionalProperties": {"type": "object"}
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(schema)

// Parse reads a snapshot from a JSON or YAML document. The document
// may be bare or wrapped in a {"response": ...} envelope.
func Parse(data []byte) (*Snapshot, error) {
	jsonBytes, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, errors.Wrap(err, "converting snapshot to JSON")
	}
	// numbers stay json.Number, so integers beyond 2^53 keep every digit
	dec := json.NewDecoder(bytes.NewReader(jsonBytes))
	dec.UseNumber()
	root, err := gabs.ParseJSONDecoder(dec)
	if err != nil {
		return nil, errors.Wrap(err, "parsing snapshot")
	}
	if _, ok := root.Data().(map[string]interface{}); !ok {
		return nil, snaperrors.MalformedSection("(root)", errors.New("snapshot is not an object"))
	}
	if !root.Exists(string(Config)) && root.Exists(envelopeKey) {
		root = root.S(envelopeKey)
	}

	if err := checkPresent(root); err != nil {
		return nil, err
	}
	if err := validate(root); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Sections: map[Section]record.EntityMap{},
	}

	configDoc, _ := root.S(string(Config)).Data().(map[string]interface{})
	if snap.Config, err = record.RecordFrom(configDoc); err != nil {
		return nil, snaperrors.MalformedSection(string(Config), err)
	}
	if snap.Config == nil {
		snap.Config = record.Record{}
	}

	for _, section := range EntitySections {
		if !root.Exists(string(section)) {
			continue
		}
		doc, _ := root.S(string(section)).Data().(map[string]interface{})
		entities, err := record.EntityMapFrom(doc)
		if err != nil {
			return nil, snaperrors.MalformedSection(string(section), err)
		}
		snap.Sections[section] = entities
	}

	if root.Exists(string(Stats)) {
		if err := json.Unmarshal(root.S(string(Stats)).Bytes(), &snap.Stats); err != nil {
			return nil, snaperrors.MalformedSection(string(Stats), err)
		}
	}
	return snap, nil
}

func checkPresent(root *gabs.Container) error {
	if !root.Exists(string(Config)) {
		return snaperrors.MissingSection(string(Config))
	}
	for _, section := range EntitySections {
		if !section.Optional() && !root.Exists(string(section)) {
			return snaperrors.MissingSection(string(section))
		}
	}
	return nil
}

// validate reports schema violations against the first section that
// has any, so the error names a section a person can go and look at.
func validate(root *gabs.Container) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(root.Data()))
	if err != nil {
		return errors.Wrap(err, "validating snapshot")
	}
	if result.Valid() {
		return nil
	}

	bySection := map[string][]string{}
	for _, re := range result.Errors() {
		section := strings.SplitN(re.Field(), ".", 2)[0]
		bySection[section] = append(bySection[section], re.String())
	}
	var sections []string
	for s := range bySection {
		sections = append(sections, s)
	}
	sort.Strings(sections)
	first := sections[0]
	return snaperrors.MalformedSection(first, errors.New(strings.Join(bySection[first], "; ")))
}

// Load reads a snapshot from a file.
func Load(path string) (*Snapshot, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading snapshot %s", path)
	}
	snap, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading snapshot %s", path)
	}
	return snap, nil
}

// Files fetches both snapshots from the local filesystem. Each call
// rereads the file, so a watcher sees edits made between refreshes.
type Files struct {
	CurrentPath string
	PendingPath string
}

func (f Files) Current(ctx context.Context) (*Snapshot, error) {
	return loadContext(ctx, f.CurrentPath)
}

func (f Files) Pending(ctx context.Context) (*Snapshot, error) {
	return loadContext(ctx, f.PendingPath)
}

func loadContext(ctx context.Context, path string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Load(path)
}
