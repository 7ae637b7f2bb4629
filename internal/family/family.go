// Package family maps model families to the chat templates the llama
// worker serves with. The table is static configuration consumed at launch
// time; the supervisor never interprets the templates itself.
package family

import (
	"path/filepath"
	"strings"
)

// Template is the chat template served for one model family.
type Template struct {
	Family   string
	Template string
	EOSToken string
	BOSToken string
}

const defaultEOSToken = "<|endoftext|>"

var templates = []Template{
	{
		Family: "merlinite",
		Template: "{% for message in messages %}\n{% if message['role'] == 'user' %}\n{{ '<|user|>\n' + message['content'] }}\n{% elif message['role'] == 'system' %}\n{{ '<|system|>\n' + message['content'] }}\n{% elif message['role'] == 'assistant' %}\n{{ '<|assistant|>\n' + message['content'] + eos_token }}\n{% endif %}\n{% if loop.last and add_generation_prompt %}\n{{ '<|assistant|>' }}\n{% endif %}\n{% endfor %}",
		EOSToken: defaultEOSToken,
	},
	{
		Family: "mixtral",
		Template: "{{ bos_token }}\n{% for message in messages %}\n{% if message['role'] == 'user' %}\n{{ '[INST] ' + message['content'] + ' [/INST]' }}\n{% elif message['role'] == 'assistant' %}\n{{ message['content'] + eos_token}}\n{% endif %}\n{% endfor %}",
		EOSToken: "</s>",
		BOSToken: "<s>",
	},
}

// Resolve returns the family label for a model. An explicit label wins;
// otherwise the label is inferred from the model filename. Returns "" when
// no known family matches, in which case the engine default template is
// used.
func Resolve(label, modelPath string) string {
	if label != "" {
		return strings.ToLower(label)
	}
	base := strings.ToLower(filepath.Base(modelPath))
	for _, t := range templates {
		if strings.Contains(base, t.Family) {
			return t.Family
		}
	}
	return ""
}

// Lookup returns the chat template for a family label. ok is false for
// unknown families.
func Lookup(label string) (Template, bool) {
	label = strings.ToLower(label)
	for _, t := range templates {
		if t.Family == label {
			return t, true
		}
	}
	return Template{}, false
}
