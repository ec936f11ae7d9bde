package msbuild

import "github.com/beevik/etree"

// Property is a single <Name>Value</Name> entry.
type Property struct {
	Name  string
	Value string
}

// PropertyGroup is a <PropertyGroup> element.
type PropertyGroup struct {
	Condition  string
	Properties []Property
}

// Set adds a property. Setting the same name twice keeps both entries, as
// MSBuild does; the later one wins at evaluation time.
func (g *PropertyGroup) Set(name, value string) *PropertyGroup {
	g.Properties = append(g.Properties, Property{Name: name, Value: value})
	return g
}

func (g *PropertyGroup) build(parent *etree.Element) {
	el := parent.CreateElement("PropertyGroup")
	if g.Condition != "" {
		el.CreateAttr("Condition", g.Condition)
	}
	for _, p := range g.Properties {
		el.CreateElement(p.Name).SetText(p.Value)
	}
}

// Metadata is a child element of an item.
type Metadata struct {
	Name  string
	Value string
}

// M is shorthand for a Metadata value.
func M(name, value string) Metadata {
	return Metadata{Name: name, Value: value}
}

// Item is one entry of an item group. Exactly one of Include, Update or
// Remove is normally set.
type Item struct {
	Type     string
	Include  string
	Update   string
	Remove   string
	Metadata []Metadata
}

// ItemGroup is an <ItemGroup> element.
type ItemGroup struct {
	Condition string
	Items     []Item
}

// Include adds <Type Include="include">.
func (g *ItemGroup) Include(itemType, include string, metadata ...Metadata) *ItemGroup {
	g.Items = append(g.Items, Item{Type: itemType, Include: include, Metadata: metadata})
	return g
}

// Update adds <Type Update="update">, used to change metadata of items
// declared elsewhere.
func (g *ItemGroup) Update(itemType, update string, metadata ...Metadata) *ItemGroup {
	g.Items = append(g.Items, Item{Type: itemType, Update: update, Metadata: metadata})
	return g
}

// Remove adds <Type Remove="remove">.
func (g *ItemGroup) Remove(itemType, remove string) *ItemGroup {
	g.Items = append(g.Items, Item{Type: itemType, Remove: remove})
	return g
}

func (g *ItemGroup) build(parent *etree.Element) {
	el := parent.CreateElement("ItemGroup")
	if g.Condition != "" {
		el.CreateAttr("Condition", g.Condition)
	}
	for _, it := range g.Items {
		item := el.CreateElement(it.Type)
		if it.Include != "" {
			item.CreateAttr("Include", it.Include)
		}
		if it.Update != "" {
			item.CreateAttr("Update", it.Update)
		}
		if it.Remove != "" {
			item.CreateAttr("Remove", it.Remove)
		}
		for _, md := range it.Metadata {
			item.CreateElement(md.Name).SetText(md.Value)
		}
	}
}
