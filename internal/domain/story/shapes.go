package story

import "github.com/vampirenirmal/outliner/internal/schema"

func text(name, desc string) schema.Field {
	return schema.Field{Name: name, Type: schema.String, Description: desc, Required: true}
}

func optionalText(name, desc string) schema.Field {
	return schema.Field{Name: name, Type: schema.String, Description: desc}
}

func textList(name, desc string) schema.Field {
	return schema.Field{
		Name:        name,
		Type:        schema.Array,
		Description: desc,
		Required:    true,
		Items:       &schema.Field{Type: schema.String, Required: true},
	}
}

func statusList(name string) schema.Field {
	return schema.Field{
		Name:     name,
		Type:     schema.Array,
		Required: true,
		Items: &schema.Field{
			Type:     schema.Object,
			Required: true,
			Fields: []schema.Field{
				text("name", "Character name exactly as it appears in the roster."),
				text("status", "What state the character is in, e.g. deceased, transformed, asleep."),
			},
		},
	}
}

// GeneralShape is the shape of the premise stage result.
func GeneralShape() schema.Shape {
	return schema.Shape{
		Name: "GeneralData",
		Fields: []schema.Field{
			text("title", ""),
			textList("themes", ""),
			textList("genres", ""),
			text("synopsis", ""),
		},
	}
}

// StructureShape is the shape of the given structure style.
func StructureShape(style Style) schema.Shape {
	defs := style.BeatDefs()
	fields := make([]schema.Field, len(defs))
	for i, d := range defs {
		fields[i] = text(d.Key, d.Description)
	}
	return schema.Shape{
		Name:   style.Key() + "_structure",
		Fields: fields,
	}
}

// WorldbuildingShape is the shape of the worldbuilding stage result.
func WorldbuildingShape() schema.Shape {
	return schema.Shape{
		Name: "WorldbuildingData",
		Fields: []schema.Field{
			optionalText("geography", ""),
			optionalText("culture", ""),
			optionalText("history", ""),
			optionalText("politics", ""),
			optionalText("economy", ""),
			optionalText("magic_technology", "Magic systems or technology level."),
			optionalText("religion", ""),
			optionalText("additional_details", ""),
		},
	}
}

// CharactersShape is the shape of the roster, a list of characters.
func CharactersShape() schema.Shape {
	return schema.Shape{
		Name: "CharacterData",
		List: true,
		Fields: []schema.Field{
			text("name", ""),
			text("age", ""),
			text("role", ""),
			text("description", "Physical description and notable features."),
			text("personality", ""),
		},
	}
}

// ChaptersShape is the shape of the chapter breakdown, a list of chapters.
func ChaptersShape() schema.Shape {
	return schema.Shape{
		Name: "ChapterData",
		List: true,
		Fields: []schema.Field{
			text("title", ""),
			text("story_structure_point", "Name of the story structure point the chapter covers."),
			text("location", ""),
			statusList("characters"),
			text("synopsis", ""),
		},
	}
}

// ScenesShape is the shape of one chapter's scenes, a list of scenes.
func ScenesShape() schema.Shape {
	return schema.Shape{
		Name: "SceneData",
		List: true,
		Fields: []schema.Field{
			text("summary", ""),
			statusList("characters"),
			text("location", ""),
			optionalText("misc", ""),
			textList("story_beats", ""),
		},
	}
}
