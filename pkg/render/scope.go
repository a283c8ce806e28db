package render

import (
	"strings"
)

// Scope is the component context a template renders in. It is the template
// dot: entering a component returns a child Scope and leaves the receiver
// untouched, so the enclosing component is back in effect as soon as the
// block that entered the child ends.
type Scope struct {
	name   string
	parent *Scope
}

// Root returns the scope of a page, outside of any component.
func Root() *Scope {
	return &Scope{}
}

// Enter returns the scope of component name nested inside s.
func (s *Scope) Enter(name string) *Scope {
	return &Scope{name: name, parent: s}
}

// Component is the innermost component name, empty at the page root.
func (s *Scope) Component() string {
	if s == nil {
		return ""
	}
	return s.name
}

// Parent returns the enclosing scope, nil at the page root.
func (s *Scope) Parent() *Scope {
	if s == nil {
		return nil
	}
	return s.parent
}

// Path lists the component names from the outermost to the innermost.
func (s *Scope) Path() []string {
	var names []string
	for cur := s; cur != nil && cur.parent != nil; cur = cur.parent {
		names = append(names, cur.name)
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return names
}

func (s *Scope) String() string {
	return strings.Join(s.Path(), "/")
}

// ImagePath resolves image against the innermost component, following the
// imgs/<component>_<image> naming the images task produces.
func (s *Scope) ImagePath(image string) string {
	return ImagePath(s.Component(), image)
}

// Image describes an image of the innermost component, for use with the
// shared "image" template.
func (s *Scope) Image(image string) Image {
	return Image{Component: s.Component(), Name: image, Path: s.ImagePath(image)}
}

// Image is an image reference resolved against a component.
type Image struct {
	Component string
	Name      string
	Path      string
}

// ImagePath builds the output path of image owned by component.
func ImagePath(component, image string) string {
	if component == "" {
		return "imgs/" + image
	}
	return "imgs/" + component + "_" + image
}
