// internal/browser/js.go
package browser

import (
	"fmt"
	"strconv"
)

// jsPrelude defines the page-side helpers every query script shares:
// visibility checks, resilient selector generation, and the element
// descriptor shape the Go side unmarshals into schemas.Element.
//
// Selector generation prefers, in order: element id, data-testid, tag name
// plus up to two class tokens plus an nth-child disambiguator when siblings
// of the same tag exist.
const jsPrelude = `
	const visible = (el) => {
		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		return rect.width > 0 && rect.height > 0 &&
			style.display !== 'none' &&
			style.visibility !== 'hidden' &&
			style.opacity !== '0';
	};
	const cssEscape = (s) => (window.CSS && CSS.escape) ? CSS.escape(s) : s.replace(/([^a-zA-Z0-9_-])/g, '\\$1');
	const selectorFor = (el) => {
		const tag = el.tagName.toLowerCase();
		if (el.id && /^[a-zA-Z][\w-]*$/.test(el.id)) {
			return '#' + cssEscape(el.id);
		}
		const testId = el.getAttribute('data-testid');
		if (testId) {
			return tag + '[data-testid="' + testId + '"]';
		}
		let sel = tag;
		if (el.className && typeof el.className === 'string') {
			const classes = el.className.trim().split(/\s+/)
				.filter(c => c && !/^[0-9]/.test(c) && c.length < 40)
				.slice(0, 2);
			if (classes.length > 0) {
				sel += '.' + classes.map(cssEscape).join('.');
			}
		}
		const parent = el.parentElement;
		if (parent) {
			const sameTag = Array.from(parent.children).filter(c => c.tagName === el.tagName);
			if (sameTag.length > 1) {
				const index = Array.from(parent.children).indexOf(el);
				sel += ':nth-child(' + (index + 1) + ')';
			}
			const parentSel = parent.id && /^[a-zA-Z][\w-]*$/.test(parent.id)
				? '#' + cssEscape(parent.id) : null;
			if (parentSel) {
				sel = parentSel + ' > ' + sel;
			}
		}
		return sel;
	};
	const describe = (el) => {
		const rect = el.getBoundingClientRect();
		return {
			selector: selectorFor(el),
			tag: el.tagName.toLowerCase(),
			type: (el.getAttribute('type') || '').toLowerCase(),
			role: (el.getAttribute('role') || '').toLowerCase(),
			visible: visible(el),
			rect: {x: rect.left + window.scrollX, y: rect.top + window.scrollY, width: rect.width, height: rect.height},
			text: (el.innerText || el.value || '').trim().substring(0, 120)
		};
	};
	const accessibleName = (el) => {
		const parts = [el.getAttribute('aria-label') || ''];
		if (el.id) {
			const lbl = document.querySelector('label[for="' + cssEscape(el.id) + '"]');
			if (lbl) parts.push(lbl.innerText || '');
		}
		const wrapping = el.closest('label');
		if (wrapping) parts.push(wrapping.innerText || '');
		parts.push(el.getAttribute('placeholder') || '', el.getAttribute('name') || '', el.getAttribute('title') || '');
		if (el.tagName === 'BUTTON') parts.push(el.innerText || '');
		return parts.join(' ').toLowerCase();
	};
	const interactiveSelector = 'input, select, textarea, button, [role="checkbox"], [role="switch"], [role="radio"], [role="spinbutton"], [role="combobox"], [role="textbox"], [role="button"]';
`

// QueryAllScript returns every element matching the CSS selector.
func QueryAllScript(css string) string {
	return fmt.Sprintf(`(() => {%s
		try {
			return Array.from(document.querySelectorAll(%s)).map(describe);
		} catch (e) { return []; }
	})()`, jsPrelude, strconv.Quote(css))
}

// AriaLabelScript returns elements whose aria-label contains the needle,
// case-insensitively.
func AriaLabelScript(needle string) string {
	return fmt.Sprintf(`(() => {%s
		const needle = %s.toLowerCase();
		return Array.from(document.querySelectorAll('[aria-label]'))
			.filter(el => (el.getAttribute('aria-label') || '').toLowerCase().includes(needle))
			.map(describe);
	})()`, jsPrelude, strconv.Quote(needle))
}

// LabelAssocScript returns controls associated with a label whose text
// contains the needle, through either label[for] or wrapping-label semantics.
func LabelAssocScript(needle string) string {
	return fmt.Sprintf(`(() => {%s
		const needle = %s.toLowerCase();
		const out = [];
		for (const lbl of document.querySelectorAll('label')) {
			if (!(lbl.innerText || '').toLowerCase().includes(needle)) continue;
			let control = null;
			const forId = lbl.getAttribute('for');
			if (forId) {
				control = document.getElementById(forId);
			}
			if (!control) {
				control = lbl.querySelector('input, select, textarea, button');
			}
			if (control) out.push(describe(control));
		}
		return out;
	})()`, jsPrelude, strconv.Quote(needle))
}

// roleQueries maps an interactive role to the CSS covering both its explicit
// and implicit forms.
var roleQueries = map[string]string{
	"checkbox":   `input[type="checkbox"], [role="checkbox"]`,
	"switch":     `[role="switch"]`,
	"radio":      `input[type="radio"], [role="radio"]`,
	"spinbutton": `input[type="number"], [role="spinbutton"]`,
	"combobox":   `select, [role="combobox"]`,
	"textbox":    `input[type="text"], input:not([type]), textarea, [role="textbox"]`,
	"button":     `button, input[type="button"], input[type="submit"], [role="button"]`,
}

// RoleNameScript returns elements of the given interactive role whose
// accessible name contains the needle, case-insensitively.
func RoleNameScript(role, needle string) string {
	query, ok := roleQueries[role]
	if !ok {
		query = fmt.Sprintf(`[role=%s]`, strconv.Quote(role))
	}
	return fmt.Sprintf(`(() => {%s
		const needle = %s.toLowerCase();
		return Array.from(document.querySelectorAll(%s))
			.filter(el => accessibleName(el).includes(needle))
			.map(describe);
	})()`, jsPrelude, strconv.Quote(needle), strconv.Quote(query))
}

// BandScript returns interactive controls whose vertical position falls
// within the band below top, nearest first.
func BandScript(top, band float64) string {
	return fmt.Sprintf(`(() => {%s
		const top = %g, band = %g;
		return Array.from(document.querySelectorAll(interactiveSelector))
			.map(describe)
			.filter(d => d.visible && d.rect.y >= top && d.rect.y <= top + band)
			.sort((a, b) => (a.rect.y - b.rect.y) || (a.rect.x - b.rect.x));
	})()`, jsPrelude, top, band)
}

// NearestInteractiveScript finds the element containing the visible text and
// walks to the nearest interactive control in the same container, or failing
// that, in the next sibling container.
func NearestInteractiveScript(needle string) string {
	return fmt.Sprintf(`(() => {%s
		const needle = %s.toLowerCase();
		let holder = null;
		for (const el of document.querySelectorAll('body *')) {
			if (el.children.length > 3) continue;
			if (!visible(el)) continue;
			if ((el.innerText || '').toLowerCase().includes(needle)) holder = el;
		}
		if (!holder) return [];
		let scope = holder.parentElement;
		while (scope && scope !== document.body) {
			const control = scope.querySelector(interactiveSelector);
			if (control) return [describe(control)];
			const sibling = scope.nextElementSibling;
			if (sibling) {
				const next = sibling.matches(interactiveSelector) ? sibling : sibling.querySelector(interactiveSelector);
				if (next) return [describe(next)];
			}
			scope = scope.parentElement;
		}
		return [];
	})()`, jsPrelude, strconv.Quote(needle))
}

// InstanceRowScript finds the results-table row whose text contains the
// filter string and returns the row's radio control, falling back to the
// row's first interactive control.
func InstanceRowScript(needle string) string {
	return fmt.Sprintf(`(() => {%s
		const needle = %s.toLowerCase();
		for (const row of document.querySelectorAll('tr, [role="row"]')) {
			if (!visible(row)) continue;
			if (!(row.innerText || '').toLowerCase().includes(needle)) continue;
			const control = row.querySelector('input[type="radio"], [role="radio"]') ||
				row.querySelector(interactiveSelector);
			if (control) return [describe(control)];
		}
		return [];
	})()`, jsPrelude, strconv.Quote(needle))
}

// ListboxOptionScript finds the open listbox or menu option whose text
// contains the wanted value.
func ListboxOptionScript(needle string) string {
	return fmt.Sprintf(`(() => {%s
		const needle = %s.toLowerCase();
		const out = [];
		for (const opt of document.querySelectorAll('[role="option"], [role="menuitem"], li')) {
			if (!visible(opt)) continue;
			if ((opt.innerText || '').toLowerCase().includes(needle)) out.push(describe(opt));
		}
		return out;
	})()`, jsPrelude, strconv.Quote(needle))
}

// SelectOptionScript selects the option matching value (by value attribute or
// visible text) and dispatches the events frameworks listen for. Returns
// whether a match was found.
func SelectOptionScript(selector, value string) string {
	return fmt.Sprintf(`(() => {
		const sel = document.querySelector(%s);
		if (!sel) return false;
		const want = %s.trim().toLowerCase();
		for (const opt of sel.options) {
			const optValue = (opt.value || '').trim().toLowerCase();
			const optText = (opt.text || '').trim().toLowerCase();
			if (optValue === want || optText === want) {
				sel.value = opt.value;
				sel.dispatchEvent(new Event('input', {bubbles: true}));
				sel.dispatchEvent(new Event('change', {bubbles: true}));
				return true;
			}
		}
		return false;
	})()`, strconv.Quote(selector), strconv.Quote(value))
}

// ReadValueScript reads the current value of an input, textarea, or
// contenteditable element.
func ReadValueScript(selector string) string {
	return fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return null;
		if (el.value !== undefined) return String(el.value);
		return (el.innerText || '').trim();
	})()`, strconv.Quote(selector))
}

// SelectedTextScript reads the visible text of a select element's chosen
// option, falling back to its value.
func SelectedTextScript(selector string) string {
	return fmt.Sprintf(`(() => {
		const sel = document.querySelector(%s);
		if (!sel) return null;
		if (sel.selectedIndex >= 0 && sel.options[sel.selectedIndex]) {
			return (sel.options[sel.selectedIndex].text || '').trim();
		}
		return String(sel.value || '');
	})()`, strconv.Quote(selector))
}

// CheckedStateScript reads the boolean checked state of a checkbox, radio,
// or ARIA toggle.
func CheckedStateScript(selector string) string {
	return fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return null;
		if (el.checked !== undefined) return !!el.checked;
		const aria = el.getAttribute('aria-checked') || el.getAttribute('aria-pressed');
		return aria === 'true';
	})()`, strconv.Quote(selector))
}

// SetValueScript assigns the underlying value property through the native
// setter and dispatches input/change notifications. Last-resort write path
// for controls that reject synthetic keystrokes.
func SetValueScript(selector, value string) string {
	return fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		const proto = el.tagName === 'TEXTAREA' ? HTMLTextAreaElement.prototype : HTMLInputElement.prototype;
		const setter = Object.getOwnPropertyDescriptor(proto, 'value');
		if (setter && setter.set) {
			setter.set.call(el, %s);
		} else {
			el.value = %s;
		}
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return true;
	})()`, strconv.Quote(selector), strconv.Quote(value), strconv.Quote(value))
}
