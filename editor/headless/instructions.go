package headless

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Instructions is a parsed instruction file.
//
//	printEachChange: true
//	objects:
//	  - path: Class'MyPackage.MyClass'
//	    mightNotExist: false
//	    flags:
//	      - name: Class.ClassFlags.Abstract
//	        value: true
type Instructions struct {
	// PrintEachChange reports every flag outcome. Defaults to true.
	PrintEachChange bool
	Objects         []Object
}

// Object selects one node and the flags to set on it.
type Object struct {
	Path          string
	MightNotExist bool
	Flags         []Flag
	Line          int
}

// Flag is one flag assignment.
type Flag struct {
	Name          string
	Value         bool
	MightNotExist bool
	Line          int
}

// HasAnyFlags reports whether any object lists a flag.
func (in *Instructions) HasAnyFlags() bool {
	for _, o := range in.Objects {
		if len(o.Flags) > 0 {
			return true
		}
	}
	return false
}

// LineError is a problem found at a line of the instruction file.
type LineError struct {
	Line int
	Msg  string
}

func (e *LineError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

// LoadInstructions reads and parses an instruction file.
func LoadInstructions(path string) (*Instructions, []*LineError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "read instructions")
	}
	in, problems := ParseInstructions(data)
	return in, problems, nil
}

// ParseInstructions decodes an instruction document. Unknown keys and
// malformed values are reported with their line and skipped; a document
// that is not YAML at all yields nil instructions.
func ParseInstructions(data []byte) (*Instructions, []*LineError) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, []*LineError{{Line: yamlErrorLine(err), Msg: "Error while reading instruction file: " + err.Error()}}
	}
	p := &parser{}
	in := &Instructions{PrintEachChange: true}
	if len(doc.Content) == 0 {
		return in, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		p.errorf(root, "Expected a mapping at the top of the instruction file!")
		return nil, p.problems
	}
	p.mapping(root, func(key string, v *yaml.Node) {
		switch key {
		case "printEachChange":
			in.PrintEachChange = p.boolean(v)
		case "objects":
			p.sequence(v, func(item *yaml.Node) {
				in.Objects = append(in.Objects, p.object(item))
			})
		default:
			p.unknown(key, v)
		}
	})
	return in, p.problems
}

type parser struct {
	problems []*LineError
}

func (p *parser) errorf(n *yaml.Node, format string, args ...interface{}) {
	p.problems = append(p.problems, &LineError{Line: n.Line, Msg: fmt.Sprintf(format, args...)})
}

func (p *parser) unknown(key string, v *yaml.Node) {
	p.problems = append(p.problems, &LineError{Line: v.Line, Msg: fmt.Sprintf("Unknown key %s!", key)})
}

func (p *parser) mapping(n *yaml.Node, fn func(key string, v *yaml.Node)) {
	if n.Kind != yaml.MappingNode {
		p.errorf(n, "Expected a mapping!")
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		fn(n.Content[i].Value, n.Content[i+1])
	}
}

func (p *parser) sequence(n *yaml.Node, fn func(*yaml.Node)) {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return
	}
	if n.Kind != yaml.SequenceNode {
		p.errorf(n, "Expected a list!")
		return
	}
	for _, item := range n.Content {
		fn(item)
	}
}

func (p *parser) boolean(n *yaml.Node) bool {
	var v bool
	if err := n.Decode(&v); err != nil {
		p.errorf(n, "Expected true or false, found %s!", strconv.Quote(n.Value))
	}
	return v
}

func (p *parser) str(n *yaml.Node) string {
	if n.Kind != yaml.ScalarNode {
		p.errorf(n, "Expected a string!")
		return ""
	}
	return n.Value
}

func (p *parser) object(n *yaml.Node) Object {
	o := Object{Line: n.Line}
	p.mapping(n, func(key string, v *yaml.Node) {
		switch key {
		case "path":
			o.Path = p.str(v)
		case "mightNotExist":
			o.MightNotExist = p.boolean(v)
		case "flags":
			p.sequence(v, func(item *yaml.Node) {
				o.Flags = append(o.Flags, p.flag(item))
			})
		default:
			p.unknown(key, v)
		}
	})
	return o
}

func (p *parser) flag(n *yaml.Node) Flag {
	f := Flag{Line: n.Line}
	p.mapping(n, func(key string, v *yaml.Node) {
		switch key {
		case "name":
			f.Name = p.str(v)
		case "value":
			f.Value = p.boolean(v)
		case "mightNotExist":
			f.MightNotExist = p.boolean(v)
		default:
			p.unknown(key, v)
		}
	})
	return f
}

// yamlErrorLine extracts the line of a yaml.v3 syntax error, or -1.
func yamlErrorLine(err error) int {
	var line int
	if _, scanErr := fmt.Sscanf(err.Error(), "yaml: line %d:", &line); scanErr == nil {
		return line
	}
	return -1
}
