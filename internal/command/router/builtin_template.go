package router

import (
	"context"
	"strings"
)

// TemplateResponse answers with the command's stored template. It carries
// no aliases of its own: operator-created command rows point their handler
// at it and attach whatever aliases they like.
type TemplateResponse struct{}

func (TemplateResponse) Spec() Spec {
	return Spec{
		Name:          "template_response",
		Description:   "Respond with the command's stored template",
		Enabled:       true,
		DefaultActive: true,
	}
}

func (TemplateResponse) Run(ctx context.Context, inv *Invocation) error {
	bc := inv.Bot()
	renderer := bc.Templates()
	contexts, ok := renderer.Contexts(inv.Attrs.ID)
	if !ok {
		bc.Logger.Warn("templated command has no template", "command_id", inv.Attrs.ID, "alias", inv.Alias)
		return nil
	}
	data, err := templateData(inv, contexts)
	if err != nil {
		return inv.Replyf(ctx, "could not parse arguments: %v", err)
	}
	out, ok, err := renderer.Render(inv.Attrs.ID, data)
	if err != nil || !ok {
		return err
	}
	return inv.Reply(ctx, out)
}

// templateData builds the render data from the context values the template
// asked for; unknown names are ignored.
func templateData(inv *Invocation, contexts []string) (map[string]any, error) {
	data := make(map[string]any, len(contexts)*2)
	for _, name := range contexts {
		switch name {
		case "sender":
			if s := inv.Event().Sender; s != nil {
				data["sender_login"] = s.Login
				data["sender_name"] = s.DisplayName
			}
		case "channel":
			if inv.Channel != nil {
				data["channel_name"] = inv.Channel.Data.Name
			}
		case "args":
			args, err := inv.Args()
			if err != nil {
				return nil, err
			}
			data["args"] = args
			data["args_joined"] = inv.RawArgs
		}
	}
	return data, nil
}

const templateUsage = "usage: set <alias> <template> | remove <alias> | context <alias> [sender|channel|args ...]"

// TemplateAdminPort is the template persistence the command needs.
type TemplateAdminPort interface {
	Update(ctx context.Context, commandID int32, text *string) error
	UpdateContexts(ctx context.Context, commandID int32, contexts []string) error
}

// TemplateCmd edits the stored response templates.
type TemplateCmd struct {
	templates TemplateAdminPort
}

// NewTemplateCmd constructs the template command.
func NewTemplateCmd(templates TemplateAdminPort) *TemplateCmd {
	return &TemplateCmd{templates: templates}
}

func (*TemplateCmd) Spec() Spec {
	return Spec{
		Name:                "template",
		Aliases:             []string{"template"},
		Description:         "Edit command response templates",
		Enabled:             true,
		DefaultActive:       true,
		WhisperEnabled:      true,
		RequiredPermissions: []string{permCommandsManage},
	}
}

func (c *TemplateCmd) Run(ctx context.Context, inv *Invocation) error {
	sub, rest, _ := strings.Cut(inv.RawArgs, " ")
	aliasArg, body, _ := strings.Cut(strings.TrimSpace(rest), " ")
	if sub == "" || aliasArg == "" {
		return inv.Reply(ctx, templateUsage)
	}
	attrs, ok := inv.Bot().Commands().GetByAlias(aliasArg)
	if !ok {
		return inv.Replyf(ctx, "no command named %s.", aliasArg)
	}

	switch sub {
	case "set":
		// The template body is taken verbatim, not tokenized.
		body = strings.TrimSpace(body)
		if body == "" {
			return inv.Reply(ctx, templateUsage)
		}
		if err := c.templates.Update(ctx, attrs.ID, &body); err != nil {
			return err
		}
	case "remove":
		if err := c.templates.Update(ctx, attrs.ID, nil); err != nil {
			return err
		}
	case "context":
		contexts := strings.Fields(body)
		if err := c.templates.UpdateContexts(ctx, attrs.ID, contexts); err != nil {
			return err
		}
	default:
		return inv.Reply(ctx, templateUsage)
	}

	if err := inv.Bot().ReloadTemplates(ctx); err != nil {
		return inv.Replyf(ctx, "saved, but the template does not compile: %v", err)
	}
	return inv.Replyf(ctx, "template for %s updated.", aliasArg)
}
